// Package httpapi exposes the cloud node over HTTP with gin: account
// registration and login for local nodes, snapshot ingestion and sync
// history.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to an HTTP status. Local nodes read 404 on
// the sync endpoints as "user not registered here".
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorUnregisteredRemoteUser), errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
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
