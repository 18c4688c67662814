package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/infrastructure/storage/postgres"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Pinger
	pool    *postgres.Pool
	version string
}

// NewHealthHandler creates a new health handler. pool may be nil, then
// Info omits the connection stats.
func NewHealthHandler(db Pinger, pool *postgres.Pool, version string) *HealthHandler {
	return &HealthHandler{db: db, pool: pool, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health and /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "stockledger",
		"version": h.version,
	}
	if h.pool != nil && h.pool.Pool != nil {
		stats := postgres.GetPoolStats(h.pool.Pool)
		info["database"] = map[string]any{
			"total_conns":    stats.TotalConns,
			"acquired_conns": stats.AcquiredConns,
			"idle_conns":     stats.IdleConns,
			"max_conns":      stats.MaxConns,
		}
	}
	c.JSON(http.StatusOK, info)
}
