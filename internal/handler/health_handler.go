package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
)

// Component status values reported by /health.
const (
	componentHealthy   = "healthy"
	componentDegraded  = "degraded"
	componentUnhealthy = "unhealthy"
)

// Probe timeouts. /health runs every dependency check; /ready only the
// database, since that is the one dependency requests cannot survive
// without.
const (
	healthCheckTimeout    = 5 * time.Second
	readinessCheckTimeout = 2 * time.Second
)

// HealthChecker reports database connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EmailHealthChecker reports whether email delivery is currently gated by
// its circuit breaker.
type EmailHealthChecker interface {
	IsCircuitOpen() bool
}

// HealthHandler serves the health, readiness, and liveness probes.
type HealthHandler struct {
	db     HealthChecker
	email  EmailHealthChecker
	errs   *metrics.RateTracker
	logger *zap.Logger
}

// HealthHandlerConfig holds the probe dependencies. Nil checkers are
// skipped, so a deployment without email still reports cleanly.
type HealthHandlerConfig struct {
	HealthChecker      HealthChecker
	EmailHealthChecker EmailHealthChecker
	ErrorStats         *metrics.RateTracker
	Logger             *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	if cfg.Logger == nil {
		panic("logger is required")
	}
	return &HealthHandler{
		db:     cfg.HealthChecker,
		email:  cfg.EmailHealthChecker,
		errs:   cfg.ErrorStats,
		logger: cfg.Logger,
	}
}

// RegisterRoutes registers the probe routes on the router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReadiness)
	r.Get("/live", h.HandleLiveness)
}

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status  string                     `json:"status"`
	Version string                     `json:"version,omitempty"`
	Checks  map[string]ComponentHealth `json:"checks,omitempty"`
	Errors  map[string]int64           `json:"error_counts,omitempty"`
}

// ComponentHealth reports one dependency's state.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		return ComponentHealth{Status: componentUnhealthy, Message: err.Error()}
	}
	return ComponentHealth{Status: componentHealthy}
}

func (h *HealthHandler) checkEmail() ComponentHealth {
	if h.email.IsCircuitOpen() {
		h.logger.Warn("email circuit breaker is open")
		return ComponentHealth{
			Status:  componentDegraded,
			Message: "circuit breaker open, delivery temporarily unavailable",
		}
	}
	return ComponentHealth{Status: componentHealthy}
}

// HandleHealth runs every dependency check and reports the worst outcome.
// A database failure makes the whole service unhealthy (503); an open email
// circuit only degrades it.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
		Checks:  make(map[string]ComponentHealth),
	}

	if h.db != nil {
		resp.Checks["database"] = h.checkDatabase(ctx)
	}
	if h.email != nil {
		resp.Checks["email"] = h.checkEmail()
	}
	if h.errs != nil {
		counts := make(map[string]int64)
		for category, stats := range h.errs.Snapshot() {
			counts[string(category)] = stats.Count
		}
		resp.Errors = counts
	}

	for _, check := range resp.Checks {
		switch check.Status {
		case componentUnhealthy:
			resp.Status = componentUnhealthy
		case componentDegraded:
			if resp.Status == "ok" {
				resp.Status = componentDegraded
			}
		}
	}

	status := http.StatusOK
	if resp.Status == componentUnhealthy {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

// HandleReadiness gates traffic on database connectivity alone.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("readiness check failed", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// HandleLiveness always succeeds while the process can serve requests.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
