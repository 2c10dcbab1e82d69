package handlers

import (
	"context"
	"net/http"
	"time"

	"docchat/internal/contextutil"
	"docchat/internal/service"
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	assistant          service.AssistantService
	generator          Pinger
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. generator may be nil to skip the model check.
func NewHealthHandler(assistant service.AssistantService, generator Pinger) *HealthHandler {
	return &HealthHandler{
		assistant:          assistant,
		generator:          generator,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Ready reports whether documents have been ingested.
	Ready bool `json:"ready"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 OK if healthy, 503 Service Unavailable if the model provider is unreachable.
//
// swagger:route GET /api/health healthCheck
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	status := h.assistant.Status(ctx)
	checks := map[string]string{"session": "not_ready"}
	if status.Ready {
		checks["session"] = "ready"
	}

	var issues []string
	if h.generator != nil {
		if err := h.generator.Ping(checkCtx); err != nil {
			logger.WarnContext(ctx, "model provider health check failed", "error", err)
			checks["model_provider"] = "error"
			issues = append(issues, "model_provider_unavailable")
		} else {
			checks["model_provider"] = "ok"
		}
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Ready:     status.Ready,
		Checks:    checks,
		Issues:    issues,
	}
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		response.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, response)
}
