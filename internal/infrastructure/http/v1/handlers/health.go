package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/infrastructure/storage/postgres"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	app     string
	version string
	checks  map[string]Pinger
	stats   func() postgres.PoolStats
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(app, version string, checks map[string]Pinger, stats func() postgres.PoolStats) *HealthHandler {
	return &HealthHandler{app: app, version: version, checks: checks, stats: stats}
}

// Live reports whether the process is alive.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready reports whether the service can accept traffic.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			results[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "healthy"
	}

	body := gin.H{"status": "ok", "checks": results}
	if status != http.StatusOK {
		body["status"] = "error"
	}
	c.JSON(status, body)
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     h.app,
		"version": h.version,
	}
	if h.stats != nil {
		body["database"] = h.stats()
	}
	c.JSON(http.StatusOK, body)
}
