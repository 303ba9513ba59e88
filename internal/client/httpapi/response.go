// Package httpapi exposes the local node over HTTP with gin: capture
// ingress for the browser extension, the image library, try-on, accounts
// and cloud sync.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/closetsync/internal/client/tryon"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorUnregisteredRemoteUser):
		return http.StatusNotFound
	case errors.Is(err, tryon.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = common.ErrorInternal.Error()
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Success: false, Error: msg})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: msg})
}

func respondOK(c *gin.Context, payload gin.H) {
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}
