package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes caps multipart uploads.
const DefaultMaxUploadBytes = 10 << 20

type pageInfo struct {
	URL          string         `json:"url"`
	Title        string         `json:"title"`
	ImageContext map[string]any `json:"imageContext"`
}

type captureRequest struct {
	ImageData   string   `json:"imageData"`
	OriginalURL string   `json:"originalUrl"`
	PageInfo    pageInfo `json:"pageInfo"`
	Category    string   `json:"category"`
}

type CaptureHandler struct {
	capture        services.CaptureService
	maxUploadBytes int64
}

func NewCaptureHandler(capture services.CaptureService, maxUploadBytes int64) *CaptureHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &CaptureHandler{capture: capture, maxUploadBytes: maxUploadBytes}
}

// POST /api/receive-image
func (h *CaptureHandler) ReceiveImage(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.ImageData == "" {
		respondBadRequest(c, "missing image data")
		return
	}

	h.run(c, services.CaptureRequest{
		UserID:      userID(c),
		ImageURL:    req.ImageData,
		OriginalURL: req.OriginalURL,
		PageURL:     req.PageInfo.URL,
		PageTitle:   req.PageInfo.Title,
		Category:    req.Category,
		Source:      services.SourceExtension,
		ContextInfo: req.PageInfo.ImageContext,
	})
}

// POST /api/upload-clipboard
func (h *CaptureHandler) UploadClipboard(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.ImageData == "" {
		respondBadRequest(c, "clipboard holds no image data")
		return
	}

	cat := category.Validate(req.Category)
	h.run(c, services.CaptureRequest{
		UserID:      userID(c),
		ImageURL:    req.ImageData,
		OriginalURL: services.SourceClipboard,
		PageURL:     services.SourceClipboard,
		PageTitle:   fmt.Sprintf("Clipboard image - %s", cat),
		Category:    string(cat),
		Source:      services.SourceClipboard,
	})
}

// POST /api/upload-file (multipart: file, category)
func (h *CaptureHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondBadRequest(c, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
			return
		}
		respondBadRequest(c, "no file uploaded")
		return
	}
	if fh.Filename == "" {
		respondBadRequest(c, "no file selected")
		return
	}
	if !assets.IsAllowedExtension(fh.Filename) {
		respondBadRequest(c, fmt.Sprintf("unsupported file type, allowed: %v", assets.AllowedExtensions))
		return
	}
	if fh.Size > h.maxUploadBytes {
		respondBadRequest(c, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		respondError(c, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		respondBadRequest(c, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
		return
	}
	if len(data) == 0 {
		respondBadRequest(c, "uploaded file is empty")
		return
	}

	cat := category.Validate(c.PostForm("category"))
	h.run(c, services.CaptureRequest{
		UserID:      userID(c),
		Data:        data,
		OriginalURL: fh.Filename,
		PageURL:     services.SourceUpload,
		PageTitle:   fmt.Sprintf("Uploaded file - %s", fh.Filename),
		Category:    string(cat),
		Source:      services.SourceUpload,
		ContextInfo: map[string]any{"original_filename": fh.Filename},
	})
}

func (h *CaptureHandler) run(c *gin.Context, req services.CaptureRequest) {
	res, err := h.capture.Capture(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"taskId":      res.JobID,
		"imageId":     res.ImageID,
		"filename":    res.Filename,
		"fileSize":    res.FileSize,
		"category":    res.Category,
		"imageWidth":  res.Width,
		"imageHeight": res.Height,
		"isLoggedIn":  authenticated(c),
	}
	if !authenticated(c) {
		body["message"] = fmt.Sprintf("saved to the %s folder of the default user; log in to manage your images", res.Category)
	}
	respondOK(c, body)
}

// GET /api/task/:id
func (h *CaptureHandler) TaskStatus(c *gin.Context) {
	job, err := h.capture.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "task does not exist"})
			return
		}
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"status": job.Status, "task": job})
}
