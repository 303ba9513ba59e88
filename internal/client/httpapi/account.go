package httpapi

import (
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	auth services.AuthService
}

func NewAccountHandler(auth services.AuthService) *AccountHandler {
	return &AccountHandler{auth: auth}
}

// POST /api/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user_id": user.ID, "username": user.Username, "message": "registration successful"})
}

// POST /api/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	user, token, err := h.auth.Login(c.Request.Context(), req.Username, password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user, "token": token, "message": "login successful"})
}

// GET /api/user/profile
func (h *AccountHandler) Profile(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": user})
}

// GET /api/auth/check
func (h *AccountHandler) Check(c *gin.Context) {
	if !authenticated(c) {
		respondOK(c, gin.H{"authenticated": false})
		return
	}
	user, err := h.auth.Profile(c.Request.Context(), userID(c))
	if err != nil {
		respondOK(c, gin.H{"authenticated": false})
		return
	}
	respondOK(c, gin.H{"authenticated": true, "user": user})
}
