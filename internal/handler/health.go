package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/calcagent/calcagent/internal/llm"
	"github.com/calcagent/calcagent/internal/models"
)

const version = "1.0.0"

// HealthChecker is implemented by dependencies that can report connectivity
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with optional dependency checks
type HealthHandler struct {
	model llm.Client
	redis HealthChecker
}

// NewHealthHandler accepts a nil model (not configured) and a nil redis (disabled)
func NewHealthHandler(model llm.Client, redis HealthChecker) *HealthHandler {
	return &HealthHandler{model: model, redis: redis}
}

// Health handles GET /health. The model endpoint is not called; a missing
// credential degrades the service instead.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	if h.model != nil {
		checks["model"] = h.model.Provider() + "/" + h.model.Model()
	} else {
		checks["model"] = "not configured"
		overallStatus = "degraded"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
