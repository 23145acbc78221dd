package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the database pool
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service and database health
type HealthHandler struct {
	db        Pinger
	cron      JobStatusReporter
	startedAt time.Time
}

// JobStatusReporter exposes the scheduler state
type JobStatusReporter interface {
	GetJobStatus() map[string]interface{}
}

// NewHealthHandler creates a new HealthHandler; cron may be nil
func NewHealthHandler(db Pinger, cron JobStatusReporter) *HealthHandler {
	return &HealthHandler{db: db, cron: cron, startedAt: time.Now()}
}

// Health pings the database
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{
		"service": "travel-agency-backend",
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.cron != nil {
		body["jobs"] = h.cron.GetJobStatus()
	}

	if err := h.db.PingContext(ctx); err != nil {
		body["status"] = "unhealthy"
		body["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "healthy"
	body["database"] = "connected"
	c.JSON(http.StatusOK, body)
}
