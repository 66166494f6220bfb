package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
	"github.com/dudoxx/dudoxx-api/internal/redact"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves /ping and /health.
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler running checks on /health.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Ping handles GET /ping.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, PingResponse{Ping: "pong!"})
}

// Health handles GET /health. Any failing check turns the response into a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ok"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("health check failed", "check", name, "error", redact.Error(err))
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(h.checks))
			}
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	shared.RespondWithJSON(w, r, status, resp)
}
