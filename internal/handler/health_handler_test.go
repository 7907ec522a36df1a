package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

type stubEmailChecker struct {
	open bool
}

func (s *stubEmailChecker) IsCircuitOpen() bool { return s.open }

func newHealthRouter(db HealthChecker, email EmailHealthChecker) *chi.Mux {
	h := NewHealthHandler(HealthHandlerConfig{
		HealthChecker:      db,
		EmailHealthChecker: email,
		Logger:             zap.NewNop(),
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	r := newHealthRouter(&stubPinger{}, &stubEmailChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Checks["database"].Status != "healthy" {
		t.Errorf("expected healthy database, got %q", resp.Checks["database"].Status)
	}
	if resp.Checks["email"].Status != "healthy" {
		t.Errorf("expected healthy email, got %q", resp.Checks["email"].Status)
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	r := newHealthRouter(&stubPinger{err: errors.New("connection refused")}, &stubEmailChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %q", resp.Status)
	}
}

func TestHealthHandler_EmailCircuitOpenDegrades(t *testing.T) {
	r := newHealthRouter(&stubPinger{}, &stubEmailChecker{open: true})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("expected status degraded, got %q", resp.Status)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	r := newHealthRouter(&stubPinger{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestHealthHandler_Readiness_DatabaseDown(t *testing.T) {
	r := newHealthRouter(&stubPinger{err: errors.New("connection refused")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	r := newHealthRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/live", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "alive" {
		t.Errorf("expected body 'alive', got %q", rr.Body.String())
	}
}

func TestHealthHandler_ReportsErrorCounts(t *testing.T) {
	tracker := metrics.NewRateTracker(metrics.DefaultRateTrackerConfig())
	tracker.RecordError(metrics.CategoryDatabase)
	tracker.RecordError(metrics.CategoryDatabase)

	h := NewHealthHandler(HealthHandlerConfig{
		HealthChecker: &stubPinger{},
		ErrorStats:    tracker,
		Logger:        zap.NewNop(),
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Errors["database"] != 2 {
		t.Errorf("database error count = %d, expected 2", resp.Errors["database"])
	}
}
