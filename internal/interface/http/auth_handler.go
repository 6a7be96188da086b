package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/devconnect/internal/application"
	"github.com/oksasatya/devconnect/internal/interface/middleware"
	"github.com/oksasatya/devconnect/pkg/response"
	"github.com/oksasatya/devconnect/pkg/validation"
)

// AuthHandler serves the password reset flow.
type AuthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(middleware.CtxRealIPKey); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// ResetInit POST /api/auth/reset/init {email}
// Always answers 200 so callers cannot probe for registered emails.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	link, err := h.Svc.StartPasswordReset(c.Request.Context(), userapp.ResetRequest{
		Email:     req.Email,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		if errors.Is(err, userapp.ErrResetUnavailable) {
			response.Error[any](c, http.StatusServiceUnavailable, "reset unavailable", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("reset init failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reset_link": link}, "reset link", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {token, new_password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,pwd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
	case errors.Is(err, userapp.ErrResetUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, "reset unavailable", nil)
	case errors.Is(err, userapp.ErrInvalidResetToken):
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("reset confirm failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
	}
}
