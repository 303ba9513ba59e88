package httpapi

import (
	"time"

	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler, logger logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	api := r.Group("/api")
	api.GET("/status", h.Status)
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/sync/user/:user_id", h.Sync)
	api.GET("/user/:user_id/sync/status", h.SyncStatus)

	return r
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Error(ctx, "http request", fields...)
		case status >= 400:
			logger.Warn(ctx, "http request", fields...)
		default:
			logger.Info(ctx, "http request", fields...)
		}
	}
}
