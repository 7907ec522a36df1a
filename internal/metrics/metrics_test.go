package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestMetrics builds a Metrics instance on a private registry so
// parallel tests never fight over collector registration.
func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

func TestNewMetrics(t *testing.T) {
	m := newTestMetrics(t)

	if m.Errors == nil {
		t.Error("error rate tracker not initialized")
	}
	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if m.WebhooksReceivedTotal == nil {
		t.Error("WebhooksReceivedTotal not initialized")
	}
	if m.LeadsCreatedTotal == nil {
		t.Error("LeadsCreatedTotal not initialized")
	}
}

func TestMetrics_RecordWebhook(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordWebhook("retell-inbound", "processed", 100*time.Millisecond)
	m.RecordWebhook("retell-inbound", "processed", 50*time.Millisecond)
	m.RecordWebhook("retell-outbound-ticket", "invalid_signature", 10*time.Millisecond)

	inboundOK := testutil.ToFloat64(m.WebhooksReceivedTotal.WithLabelValues("retell-inbound", "processed"))
	outboundInvalid := testutil.ToFloat64(m.WebhooksReceivedTotal.WithLabelValues("retell-outbound-ticket", "invalid_signature"))

	if inboundOK != 2 {
		t.Errorf("inbound processed count = %f, expected 2", inboundOK)
	}
	if outboundInvalid != 1 {
		t.Errorf("outbound invalid count = %f, expected 1", outboundInvalid)
	}
}

func TestMetrics_RecordWebhookDuplicate(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordWebhookDuplicate("call_ended")
	m.RecordWebhookDuplicate("call_ended")
	m.RecordWebhookDuplicate("call_analyzed")

	ended := testutil.ToFloat64(m.WebhookDuplicatesTotal.WithLabelValues("call_ended"))
	analyzed := testutil.ToFloat64(m.WebhookDuplicatesTotal.WithLabelValues("call_analyzed"))

	if ended != 2 {
		t.Errorf("call_ended duplicates = %f, expected 2", ended)
	}
	if analyzed != 1 {
		t.Errorf("call_analyzed duplicates = %f, expected 1", analyzed)
	}
}

func TestMetrics_RecordCallProcessed(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCallProcessed("inbound", "completed")
	m.RecordCallProcessed("inbound", "completed")
	m.RecordCallProcessed("outbound", "not_connected")
	m.RecordBillableDuration(90)

	completed := testutil.ToFloat64(m.CallsProcessedTotal.WithLabelValues("inbound", "completed"))
	notConnected := testutil.ToFloat64(m.CallsProcessedTotal.WithLabelValues("outbound", "not_connected"))

	if completed != 2 {
		t.Errorf("inbound completed = %f, expected 2", completed)
	}
	if notConnected != 1 {
		t.Errorf("outbound not_connected = %f, expected 1", notConnected)
	}
}

func TestMetrics_CRMCounters(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCustomerCreated()
	m.RecordLeadCreated("call")
	m.RecordLeadCreated("call")
	m.RecordLeadCreated("import")
	m.RecordLeadQualified(true)
	m.RecordLeadQualified(false)
	m.RecordTicketCreated()
	m.RecordTicketReopened()
	m.RecordTicketConverted()

	if got := testutil.ToFloat64(m.CustomersCreatedTotal); got != 1 {
		t.Errorf("customers created = %f, expected 1", got)
	}
	if got := testutil.ToFloat64(m.LeadsCreatedTotal.WithLabelValues("call")); got != 2 {
		t.Errorf("leads from calls = %f, expected 2", got)
	}
	if got := testutil.ToFloat64(m.LeadsCreatedTotal.WithLabelValues("import")); got != 1 {
		t.Errorf("leads from import = %f, expected 1", got)
	}
	if got := testutil.ToFloat64(m.LeadsQualifiedTotal.WithLabelValues("qualified")); got != 1 {
		t.Errorf("qualified = %f, expected 1", got)
	}
	if got := testutil.ToFloat64(m.LeadsQualifiedTotal.WithLabelValues("unqualified")); got != 1 {
		t.Errorf("unqualified = %f, expected 1", got)
	}
	if got := testutil.ToFloat64(m.TicketsReopenedTotal); got != 1 {
		t.Errorf("tickets reopened = %f, expected 1", got)
	}
	if got := testutil.ToFloat64(m.TicketsConvertedTotal); got != 1 {
		t.Errorf("tickets converted = %f, expected 1", got)
	}
}

func TestMetrics_RecordNotification(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordNotification(true, 2*time.Second)
	m.RecordNotification(false, 500*time.Millisecond)
	m.RecordNotificationSuppressed()
	m.RecordCircuitOpen()

	successCount := testutil.ToFloat64(m.NotificationsSentTotal.WithLabelValues("success"))
	failureCount := testutil.ToFloat64(m.NotificationsSentTotal.WithLabelValues("failure"))
	suppressedCount := testutil.ToFloat64(m.NotificationsSentTotal.WithLabelValues("suppressed"))
	circuitOpenCount := testutil.ToFloat64(m.NotificationsSentTotal.WithLabelValues("circuit_open"))
	tripCount := testutil.ToFloat64(m.CircuitBreakerTrips)

	if successCount != 1 {
		t.Errorf("success count = %f, expected 1", successCount)
	}
	if failureCount != 1 {
		t.Errorf("failure count = %f, expected 1", failureCount)
	}
	if suppressedCount != 1 {
		t.Errorf("suppressed count = %f, expected 1", suppressedCount)
	}
	if circuitOpenCount != 1 {
		t.Errorf("circuit_open count = %f, expected 1", circuitOpenCount)
	}
	if tripCount != 1 {
		t.Errorf("trip count = %f, expected 1", tripCount)
	}
}

func TestMetrics_SetCircuitBreakerState(t *testing.T) {
	m := newTestMetrics(t)

	m.SetCircuitBreakerState("sendgrid", 0) // closed
	state := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("sendgrid"))
	if state != 0 {
		t.Errorf("state = %f, expected 0 (closed)", state)
	}

	m.SetCircuitBreakerState("sendgrid", 2) // open
	state = testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("sendgrid"))
	if state != 2 {
		t.Errorf("state = %f, expected 2 (open)", state)
	}
}

func TestMetrics_UpdateDBConnections(t *testing.T) {
	m := newTestMetrics(t)

	m.UpdateDBConnections(10, 5)

	open := testutil.ToFloat64(m.DBConnectionsOpen)
	inUse := testutil.ToFloat64(m.DBConnectionsInUse)

	if open != 10 {
		t.Errorf("open = %f, expected 10", open)
	}
	if inUse != 5 {
		t.Errorf("inUse = %f, expected 5", inUse)
	}
}

func TestMetrics_RecordDBQuery(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDBQuery("select", 50*time.Millisecond, nil)

	m.RecordDBQuery("insert", 100*time.Millisecond, http.ErrAbortHandler)

	selectErrors := testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("select"))
	insertErrors := testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("insert"))

	if selectErrors != 0 {
		t.Errorf("select errors = %f, expected 0", selectErrors)
	}
	if insertErrors != 1 {
		t.Errorf("insert errors = %f, expected 1", insertErrors)
	}
}

func TestMetrics_RateLimiting(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRateLimitHit("webhook")
	m.RecordRateLimitHit("webhook")
	m.RecordRateLimitHit("api")

	webhookHits := testutil.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("webhook"))
	apiHits := testutil.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("api"))

	if webhookHits != 2 {
		t.Errorf("webhook hits = %f, expected 2", webhookHits)
	}
	if apiHits != 1 {
		t.Errorf("api hits = %f, expected 1", apiHits)
	}
}

func TestMetrics_Middleware(t *testing.T) {
	m := newTestMetrics(t)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", rr.Code, http.StatusOK)
	}

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))
	if count != 1 {
		t.Errorf("request count = %f, expected 1", count)
	}
}

func TestMetrics_Middleware_InFlight(t *testing.T) {
	m := newTestMetrics(t)

	initial := testutil.ToFloat64(m.HTTPRequestsInFlight)
	if initial != 0 {
		t.Errorf("initial in-flight = %f, expected 0", initial)
	}

	inFlightDuringHandler := float64(-1)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlightDuringHandler = testutil.ToFloat64(m.HTTPRequestsInFlight)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if inFlightDuringHandler != 1 {
		t.Errorf("in-flight during handler = %f, expected 1", inFlightDuringHandler)
	}

	after := testutil.ToFloat64(m.HTTPRequestsInFlight)
	if after != 0 {
		t.Errorf("in-flight after = %f, expected 0", after)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/ready", "/ready"},
		{"/live", "/live"},
		{"/metrics", "/metrics"},
		{"/api/webhooks/retell", "/api/webhooks/retell"},
		{"/api/webhooks/retell-inbound", "/api/webhooks/retell-inbound"},
		{"/api/webhooks/retell-outbound-ticket", "/api/webhooks/retell-outbound-ticket"},
		{"/api/leads/123", "/api/leads/:id"},
		{"/api/leads/abc-def-123", "/api/leads/:id"},
		{"/api/customers/9f6c", "/api/customers/:id"},
		{"/api/tickets/9f6c/convert", "/api/tickets/:id"},
		{"/api/calls/call_abc", "/api/calls/:id"},
		{"/unknown/path", "/unknown/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("WriteHeader", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		rw.WriteHeader(http.StatusNotFound)
		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d, expected %d", rw.statusCode, http.StatusNotFound)
		}

			rw.WriteHeader(http.StatusOK)
		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode after second call = %d, expected %d", rw.statusCode, http.StatusNotFound)
		}
	})

	t.Run("Write", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		rw.Write([]byte("test"))
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, expected %d", rw.statusCode, http.StatusOK)
		}
		if !rw.written {
			t.Error("written should be true after Write")
		}
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := newTestMetrics(t)

	handler := m.Handler()
	if handler == nil {
		t.Fatal("Handler returned nil")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", rr.Code, http.StatusOK)
	}
}

func TestMetrics_Middleware_FeedsErrorTracker(t *testing.T) {
	m := newTestMetrics(t)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/calls", nil))

	if got := m.Errors.ErrorCount(CategoryHTTP); got != 1 {
		t.Errorf("http error count = %d, expected 1", got)
	}
	if got := m.Errors.ErrorRatio(); got != 1 {
		t.Errorf("error ratio = %v, expected 1", got)
	}
}

func TestMetrics_RecordDBQuery_FeedsErrorTracker(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDBQuery("select", time.Millisecond, nil)
	m.RecordDBQuery("insert", time.Millisecond, http.ErrAbortHandler)

	if got := m.Errors.ErrorCount(CategoryDatabase); got != 1 {
		t.Errorf("database error count = %d, expected 1", got)
	}
}
