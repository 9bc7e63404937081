package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthHandler answers liveness probes for the indicator daemon.
type HealthHandler struct {
	version   string
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		logger:    logger.With(slog.String("handler", "health")),
	}
}

// HealthResponse is the healthz payload.
type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "health check")
	render.JSON(w, r, HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}
