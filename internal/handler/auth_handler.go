package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_catalog/internal/middleware"
	"github.com/GTDGit/gtd_catalog/internal/service"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

type AuthHandler struct {
	authService *service.AdminAuthService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

// NewAuthHandler constructs an AuthHandler. rl may be nil to disable login throttling.
func NewAuthHandler(authService *service.AdminAuthService, rl *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, rateLimiter: rl}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ip := c.ClientIP()
	if h.rateLimiter != nil && h.rateLimiter.Blocked(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed login attempts")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, utils.ErrInvalidCredentials):
		if h.rateLimiter != nil {
			h.rateLimiter.Allow(ip)
		}
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	case errors.Is(err, utils.ErrAccountInactive):
		utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is inactive")
		return
	case err != nil:
		writeServiceError(c, err, "Failed to log in")
		return
	}

	if h.rateLimiter != nil {
		h.rateLimiter.Reset(ip)
	}
	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
	})
}
