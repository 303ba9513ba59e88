package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/server/services"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/gin-gonic/gin"
)

const (
	ServiceName = "cloud_sync_server"
	Version     = "1.0.0"
)

// DefaultMaxSyncBytes bounds a snapshot body when no limit is configured.
const DefaultMaxSyncBytes = 1 << 30

type Handler struct {
	users        services.UserService
	sync         services.SyncService
	maxSyncBytes int64
}

func NewHandler(users services.UserService, sync services.SyncService, maxSyncBytes int64) *Handler {
	if maxSyncBytes <= 0 {
		maxSyncBytes = DefaultMaxSyncBytes
	}
	return &Handler{users: users, sync: sync, maxSyncBytes: maxSyncBytes}
}

// GET /api/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "running",
		"service":   ServiceName,
		"timestamp": timex.Now(),
		"version":   Version,
	})
}

// POST /api/register
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"cloud_user_id": user.ID,
		"user_id":       user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"local_user_id": user.LocalUserID,
		"message":       "user registered",
	})
}

// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondBadRequest(c, "username and password are required")
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{
		Success:     true,
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		LocalUserID: user.LocalUserID,
		Token:       token,
		Message:     "login successful",
	})
}

// POST /api/sync/user/:user_id
func (h *Handler) Sync(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSyncBytes)

	var snap syncer.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			respondBadRequest(c, "no sync data received")
		case errors.As(err, &tooLarge):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "sync data too large"})
		default:
			respondBadRequest(c, "invalid sync data")
		}
		return
	}

	res, err := h.sync.Ingest(c.Request.Context(), c.Param("user_id"), bearerToken(c), &snap)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/user/:user_id/sync/status
func (h *Handler) SyncStatus(c *gin.Context) {
	userID := c.Param("user_id")
	recs, err := h.sync.History(c.Request.Context(), userID, bearerToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": userID, "sync_history": recs})
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(common.AuthorizationHeaderName)
	if len(h) > len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return strings.TrimSpace(h[len(common.BearerPrefix):])
	}
	return ""
}
