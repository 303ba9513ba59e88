package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/gin-gonic/gin"
)

type LibraryHandler struct {
	library services.LibraryService
}

func NewLibraryHandler(library services.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func queryCategory(c *gin.Context) (category.Category, bool) {
	raw := c.Query("category")
	if raw == "" {
		return "", true
	}
	return category.Parse(raw)
}

// GET /api/user/images?page=&per_page=&category=
func (h *LibraryHandler) ListImages(c *gin.Context) {
	cat, ok := queryCategory(c)
	if !ok {
		respondBadRequest(c, "invalid category")
		return
	}
	page, err := h.library.List(c.Request.Context(), userID(c), cat,
		queryInt(c, "page", 1), queryInt(c, "per_page", services.DefaultPerPage))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"images":   page.Images,
		"total":    page.Total,
		"page":     page.Page,
		"per_page": page.PerPage,
		"pages":    page.Pages,
	})
}

// GET /api/user/images/:id
func (h *LibraryHandler) GetImage(c *gin.Context) {
	img, err := h.library.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"image": img})
}

// GET /api/images/:user_id/:filename?category=
//
// Serves the file from its category, falling back to the others. Anonymous
// requests may read any user's files; an authenticated user only their own.
func (h *LibraryHandler) ServeFile(c *gin.Context) {
	owner := c.Param("user_id")
	if authenticated(c) && userID(c) != owner {
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "access denied"})
		return
	}
	cat, ok := queryCategory(c)
	if !ok {
		respondBadRequest(c, "invalid category")
		return
	}
	filename := c.Param("filename")
	if cat == "" {
		cat = category.Infer(filename)
	}

	data, mime, err := h.library.File(c.Request.Context(), owner, filename, cat)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, mime, data)
}

// GET /api/user/files/:category
func (h *LibraryHandler) ListFiles(c *gin.Context) {
	cat, ok := category.Parse(c.Param("category"))
	if !ok {
		respondBadRequest(c, "invalid category")
		return
	}
	files, err := h.library.Files(c.Request.Context(), userID(c), cat)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"category": cat, "files": files, "total": len(files)})
}

// DELETE /api/user/images/:id
func (h *LibraryHandler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	if err := h.library.Delete(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "image " + id + " deleted"})
}

type batchDeleteRequest struct {
	ImageIDs []string `json:"image_ids"`
}

// POST /api/user/images/batch-delete
func (h *LibraryHandler) BatchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ImageIDs) == 0 {
		respondBadRequest(c, "image_ids is required")
		return
	}
	res := h.library.BatchDelete(c.Request.Context(), userID(c), req.ImageIDs)
	body := gin.H{
		"success":       res.Succeeded > 0,
		"success_count": res.Succeeded,
		"fail_count":    res.Failed,
		"messages":      res.Messages,
	}
	switch {
	case res.Succeeded == 0:
		body["error"] = fmt.Sprintf("none of %d images deleted", res.Failed)
	case res.Err() != nil:
		body["message"] = res.Err().Error()
	default:
		body["message"] = fmt.Sprintf("%d images deleted", res.Succeeded)
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/user/favorites
func (h *LibraryHandler) ListFavorites(c *gin.Context) {
	favs, err := h.library.Favorites(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"favorites": favs, "total": len(favs)})
}

// POST /api/user/favorites/:image_id
func (h *LibraryHandler) AddFavorite(c *gin.Context) {
	added, err := h.library.AddFavorite(c.Request.Context(), userID(c), c.Param("image_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "added to favorites"
	if !added {
		msg = "already favorited"
	}
	respondOK(c, gin.H{"added": added, "message": msg})
}

// DELETE /api/user/favorites/:image_id
func (h *LibraryHandler) RemoveFavorite(c *gin.Context) {
	removed, err := h.library.RemoveFavorite(c.Request.Context(), userID(c), c.Param("image_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		respondError(c, common.ErrorNotFound)
		return
	}
	respondOK(c, gin.H{"message": "removed from favorites"})
}
