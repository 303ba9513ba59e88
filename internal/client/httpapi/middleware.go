package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID        = "user_id"
	ctxAuthenticated = "authenticated"
)

// Authenticator resolves an access token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// DefaultUserResolver returns the account anonymous requests act as.
type DefaultUserResolver interface {
	DefaultUser(ctx context.Context) (*models.User, error)
}

type AuthMiddleware struct {
	auth     Authenticator
	fallback DefaultUserResolver
}

func NewAuthMiddleware(auth Authenticator, fallback DefaultUserResolver) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, fallback: fallback}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing or invalid token"})
			return
		}
		userID, err := m.auth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxAuthenticated, true)
		c.Next()
	}
}

// OptionalAuth authenticates the request when it carries a token and acts
// as the default user otherwise. A token that is present but invalid is
// still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	required := m.RequireAuth()
	return func(c *gin.Context) {
		if bearerToken(c) != "" {
			required(c)
			return
		}
		user, err := m.fallback.DefaultUser(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Set(ctxAuthenticated, false)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(common.AuthorizationHeaderName)
	if len(h) > len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return strings.TrimSpace(h[len(common.BearerPrefix):])
	}
	return ""
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func authenticated(c *gin.Context) bool {
	return c.GetBool(ctxAuthenticated)
}

// CORS admits the browser extension, whose origin is not known in advance.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:          12 * time.Hour,
	})
}

// RequestLogger logs one line per request, with the level following the
// response status.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := userID(c); id != "" {
			fields = append(fields, "user_id", id)
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
			logger.Debug(ctx, "http request", fields...)
		}
	}
}
