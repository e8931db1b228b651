package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// JWTMiddleware authenticates admin requests carrying a Bearer session token.
type JWTMiddleware struct {
	rateLimiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware constructs a JWTMiddleware. rl may be nil to disable throttling of
// invalid tokens.
func NewJWTMiddleware(rl *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{rateLimiter: rl}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.handleAuthError(c, "UNAUTHORIZED", "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.handleAuthError(c, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, code, message string) {
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetUserID returns the authenticated admin id from context, or 0.
func GetUserID(c *gin.Context) int {
	return c.GetInt("user_id")
}
