package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestCorrelation_GeneratesIDs(t *testing.T) {
	rc := NewRequestCorrelation(zap.NewNop())

	var gotCorrelation, gotRequest string
	h := rc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCorrelation = GetCorrelationID(r.Context())
		gotRequest = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if gotCorrelation == "" {
		t.Error("expected correlation id in context")
	}
	if gotRequest == "" {
		t.Error("expected request id in context")
	}
	if got := rec.Header().Get(CorrelationIDHeader); got != gotCorrelation {
		t.Errorf("response correlation header = %q, context = %q", got, gotCorrelation)
	}
	if got := rec.Header().Get(RequestIDHeader); got != gotRequest {
		t.Errorf("response request header = %q, context = %q", got, gotRequest)
	}
}

func TestRequestCorrelation_HonorsInboundHeaders(t *testing.T) {
	rc := NewRequestCorrelation(zap.NewNop())

	var gotCorrelation, gotRequest string
	h := rc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCorrelation = GetCorrelationID(r.Context())
		gotRequest = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/retell", nil)
	req.Header.Set(CorrelationIDHeader, "call-7f3a")
	req.Header.Set(RequestIDHeader, "attempt-2")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotCorrelation != "call-7f3a" {
		t.Errorf("correlation id = %q, want call-7f3a", gotCorrelation)
	}
	if gotRequest != "attempt-2" {
		t.Errorf("request id = %q, want attempt-2", gotRequest)
	}
}

func TestGetIDs_EmptyContext(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelationID(ctx); got != "" {
		t.Errorf("GetCorrelationID on empty context = %q", got)
	}
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID on empty context = %q", got)
	}
}

func TestLoggerWithCorrelation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ids := requestIDs{correlation: "corr-1", request: "req-1"}
	ctx := context.WithValue(context.Background(), requestIDsKey{}, ids)

	LoggerWithCorrelation(ctx, logger).Info("tagged")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["correlation_id"] != "corr-1" {
		t.Errorf("correlation_id = %v", fields["correlation_id"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id = %v", fields["request_id"])
	}
}

func TestLoggerWithCorrelation_NoIDs(t *testing.T) {
	logger := zap.NewNop()
	if got := LoggerWithCorrelation(context.Background(), logger); got != logger {
		t.Error("expected the original logger back when the context carries no ids")
	}
}
