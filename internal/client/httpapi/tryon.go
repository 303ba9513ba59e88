package httpapi

import (
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/gin-gonic/gin"
)

type TryOnHandler struct {
	tryon services.TryOnService
}

func NewTryOnHandler(tryon services.TryOnService) *TryOnHandler {
	return &TryOnHandler{tryon: tryon}
}

type tryOnRequest struct {
	SubjectFilename string         `json:"subject_filename"`
	PrimaryFilename string         `json:"primary_filename"`
	Parameters      map[string]any `json:"parameters"`
}

// POST /api/tryon
func (h *TryOnHandler) Generate(c *gin.Context) {
	var req tryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	rec, err := h.tryon.Generate(c.Request.Context(), services.TryOnRequest{
		UserID:          userID(c),
		SubjectFilename: req.SubjectFilename,
		PrimaryFilename: req.PrimaryFilename,
		Parameters:      req.Parameters,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"result": rec})
}

// GET /api/tryon/history?page=&per_page=
func (h *TryOnHandler) History(c *gin.Context) {
	recs, total, err := h.tryon.History(c.Request.Context(), userID(c),
		queryInt(c, "page", 1), queryInt(c, "per_page", services.DefaultPerPage))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"history": recs, "total": total})
}
