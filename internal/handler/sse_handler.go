package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_catalog/internal/middleware"
	"github.com/GTDGit/gtd_catalog/internal/sse"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// SSEHandler streams catalog change events to admin clients.
type SSEHandler struct {
	hub          *sse.Hub
	rateLimiter  *middleware.InvalidAuthRateLimiter
	pingInterval time.Duration
}

// NewSSEHandler creates a new SSEHandler. rl throttles invalid tokens and may be nil.
func NewSSEHandler(hub *sse.Hub, rl *middleware.InvalidAuthRateLimiter) *SSEHandler {
	return &SSEHandler{hub: hub, rateLimiter: rl, pingInterval: 30 * time.Second}
}

// Stream handles GET /v1/admin/sse?token=<jwt>
// EventSource cannot set headers, so the session token travels in the query string.
func (h *SSEHandler) Stream(c *gin.Context) {
	claims, ok := queryTokenClaims(c, h.rateLimiter)
	if !ok {
		return
	}

	clientID := fmt.Sprintf("admin-%d-%d", claims.UserID, time.Now().UnixNano())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"clients":   h.hub.ClientCount(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int("user_id", claims.UserID).Msg("Catalog SSE stream started")

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("catalog", string(data))
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// queryTokenClaims validates the ?token= session token. A missing or invalid token is
// answered with 401, or 429 once rl has seen too many failures from the client IP.
func queryTokenClaims(c *gin.Context, rl *middleware.InvalidAuthRateLimiter) (*utils.Claims, bool) {
	ip := c.ClientIP()
	if rl != nil && rl.Blocked(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		return nil, false
	}

	token := c.Query("token")
	if token == "" {
		queryTokenFailed(c, rl, ip, "UNAUTHORIZED", "Missing token query parameter")
		return nil, false
	}
	claims, err := utils.ValidateJWT(token)
	if err != nil {
		queryTokenFailed(c, rl, ip, "INVALID_TOKEN", "Invalid or expired token")
		return nil, false
	}
	return claims, true
}

func queryTokenFailed(c *gin.Context, rl *middleware.InvalidAuthRateLimiter, ip, code, message string) {
	if rl != nil && !rl.Allow(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		return
	}
	utils.Error(c, 401, code, message)
}
