package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docproc/internal/config"
	"docproc/internal/middleware"
)

// EngineHealth reports whether any document engine has been built.
type EngineHealth interface {
	Healthy() bool
}

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check and service info endpoints.
type HealthHandler struct {
	engines EngineHealth
	db      Pinger
	app     config.AppConfig
	server  config.ServerConfig
}

// NewHealthHandler creates a new HealthHandler. db may be nil when no
// history store is configured.
func NewHealthHandler(engines EngineHealth, db Pinger, app config.AppConfig, server config.ServerConfig) *HealthHandler {
	return &HealthHandler{engines: engines, db: db, app: app, server: server}
}

// Info handles GET /
// @Summary Service info
// @Tags health
// @Produce json
// @Success 200 {object} ServiceInfo
// @Router / [get]
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, ServiceInfo{
		App:         h.app.Name,
		Environment: h.server.Environment,
		Debug:       h.server.Debug,
		Version:     h.app.Version,
		Status:      "running",
		RequestID:   middleware.GetRequestID(c),
	})
}

// Health handles GET /health
// @Summary Health check
// @Description Reports converter_status unhealthy until a document engine has been built
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	converterStatus := "unhealthy"
	if h.engines.Healthy() {
		converterStatus = "healthy"
	}
	c.JSON(http.StatusOK, HealthStatus{
		Status:          "healthy",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		ConverterStatus: converterStatus,
		Environment:     h.server.Environment,
		RequestID:       middleware.GetRequestID(c),
	})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if !h.engines.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no document engine available"})
		return
	}
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "history database not reachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
