package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/service"
)

type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var req model.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	result, err := h.auth.Signin(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "refresh_token is required")
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}

	profile, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}

	var patch model.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	profile, err := h.auth.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID, req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
