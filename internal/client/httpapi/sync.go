package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	sync   services.SyncService
	logger logging.Logger
}

func NewSyncHandler(sync services.SyncService, logger logging.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger}
}

// POST /api/cloud/sync
//
// Schedules an export and answers with the tracking task id right away.
func (h *SyncHandler) Sync(c *gin.Context) {
	job, err := h.sync.ExportAsync(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"taskId":  job.ID,
		"message": "sync started",
	})
}

// GET /api/cloud/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	local, err := h.sync.History(ctx, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"sync_history": local}
	remote, err := h.sync.CloudHistory(ctx, userID(c))
	if err != nil {
		h.logger.Warn(ctx, "cloud sync history unavailable", "user_id", userID(c), "error", err)
		body["cloud_error"] = err.Error()
	} else {
		body["cloud_sync_history"] = remote
	}
	respondOK(c, body)
}

type StatusHandler struct {
	library services.LibraryService
	sync    services.SyncService
	probe   time.Duration
}

func NewStatusHandler(library services.LibraryService, sync services.SyncService) *StatusHandler {
	return &StatusHandler{library: library, sync: sync, probe: 2 * time.Second}
}

// GET /api/status
func (h *StatusHandler) Status(c *gin.Context) {
	total, err := h.library.TotalImages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.probe)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"status":          "running",
		"timestamp":       timex.Now(),
		"total_images":    total,
		"cloud_reachable": h.sync.CloudReachable(ctx),
	})
}
