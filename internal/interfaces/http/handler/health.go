package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// HealthHandler answers liveness probes
type HealthHandler struct {
	db        Pinger
	redis     func(ctx context.Context) error
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. redisPing may be nil when redis
// is disabled.
func NewHealthHandler(db Pinger, redisPing func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{db: db, redis: redisPing, startTime: time.Now()}
}

// HealthResponse is the health probe body
// @name HandlerHealthResponse
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Time     string `json:"time" example:"2026-03-01T09:00:00Z"`
	Database string `json:"database" example:"ok"`
	Redis    string `json:"redis,omitempty" example:"ok"`
	Uptime   string `json:"uptime" example:"1h30m0s"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports database and redis reachability. Redis is optional and never makes the service unhealthy.
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Database: "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK

	if err := h.db.Ping(); err != nil {
		logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		status = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		resp.Redis = "ok"
		if err := h.redis(ctx); err != nil {
			logger.L(ctx).Warn("Redis unreachable", zap.Error(err))
			resp.Redis = "degraded"
		}
	}

	c.JSON(status, resp)
}
