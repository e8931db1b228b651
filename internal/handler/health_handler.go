package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_catalog/internal/utils"
)

var startTime = time.Now()

// DBPinger is satisfied by *sqlx.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger is satisfied by *cache.RedisClient.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    DBPinger
	redis RedisPinger
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when caching is disabled.
func NewHealthHandler(db DBPinger, redis RedisPinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth responds with service, database and Redis status. A database failure makes
// the service unhealthy; Redis only degrades it.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", 200
	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
		status, code = "unhealthy", 503
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "disconnected"
			if code == 200 {
				status = "degraded"
			}
		}
	}

	data := gin.H{
		"status":   status,
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"redis":    redisStatus,
	}
	if code != 200 {
		c.JSON(code, utils.Response{
			Success: false,
			Code:    code,
			Message: "Service is unhealthy",
			Data:    data,
			Error:   &utils.ErrorInfo{Code: "UNHEALTHY", Message: "Database is unreachable"},
			Meta:    utils.Meta{RequestID: c.GetString("request_id"), Timestamp: time.Now().Format(time.RFC3339)},
		})
		return
	}
	utils.Success(c, 200, "Service is "+status, data)
}
