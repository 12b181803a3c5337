package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/middleware"
	"github.com/ihcportal/booking-backend/internal/models"
	"github.com/ihcportal/booking-backend/internal/services"
)

// AuthAPI is the account surface used by AuthHandler
type AuthAPI interface {
	Register(ctx context.Context, req models.RegisterRequest, meta services.RequestMeta) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest, meta services.RequestMeta) (*models.AuthResult, error)
	CurrentUser(ctx context.Context, userID string) (*models.UserProfile, error)
	GetStatus(ctx context.Context, callerID, userID string) (*models.UserStatus, error)
	RequestPasswordReset(ctx context.Context, req models.ForgotPasswordRequest, meta services.RequestMeta) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest, meta services.RequestMeta) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth   AuthAPI
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthAPI, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"userId":  res.UserID,
		"token":   res.Token,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    res.Token,
		"userId":   res.UserID,
		"fullName": res.FullName,
	})
}

// GetMe handles GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.auth.CurrentUser(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": profile})
}

// GetStatus handles GET /api/v1/status/:userId
func (h *AuthHandler) GetStatus(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	status, err := h.auth.GetStatus(c.Request.Context(), userCtx.UserID, c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"fullName":      status.FullName,
		"paymentStatus": status.PaymentStatus,
		"ihcCode":       status.IHCCode,
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req, requestMeta(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": services.ResetRequestedMessage})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req, requestMeta(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset. You can now log in"})
}
