// Package metrics exposes the Prometheus instrumentation surface plus
// the structured business event log and windowed error rate tracking.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics bundles every collector the service registers. Handlers and
// services record through the typed helper methods rather than touching
// collectors directly.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Webhook metrics
	WebhooksReceivedTotal  *prometheus.CounterVec
	WebhookProcessDuration *prometheus.HistogramVec
	WebhookDuplicatesTotal *prometheus.CounterVec

	// Call pipeline metrics
	CallsProcessedTotal  *prometheus.CounterVec
	CallDurationBillable prometheus.Histogram

	// CRM entity metrics
	CustomersCreatedTotal prometheus.Counter
	LeadsCreatedTotal     *prometheus.CounterVec
	LeadsQualifiedTotal   *prometheus.CounterVec
	TicketsCreatedTotal   prometheus.Counter
	TicketsReopenedTotal  prometheus.Counter
	TicketsConvertedTotal prometheus.Counter

	// Notification metrics
	NotificationsSentTotal *prometheus.CounterVec
	NotificationDuration   prometheus.Histogram
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerTrips    prometheus.Counter

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBQueryDuration    *prometheus.HistogramVec
	DBQueryErrors      *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Errors tracks windowed error rates per category, independent of the
	// Prometheus scrape interval.
	Errors *RateTracker

	// registry backs Handler; the default gatherer when built via NewMetrics.
	registry prometheus.Gatherer
}

// NewMetrics registers every collector on the default registry.
func NewMetrics() *Metrics {
	m := newMetricsWithRegistry(prometheus.DefaultRegisterer)
	m.registry = prometheus.DefaultGatherer
	return m
}

// NewMetricsWithRegistry registers on a caller-owned registry; tests use
// this to avoid duplicate registration panics.
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newMetricsWithRegistry(reg)
	m.registry = reg
	return m
}

func newMetricsWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		Errors: NewRateTracker(DefaultRateTrackerConfig()),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_http_requests_total",
				Help: "HTTP requests handled, labeled by method, path, and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dh_portal_http_request_duration_seconds",
				Help:    "Wall time spent handling HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dh_portal_http_requests_in_flight",
				Help: "Requests currently in flight",
			},
		),

		// Webhook metrics
		WebhooksReceivedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_webhooks_received_total",
				Help: "Total number of webhooks received by route and status",
			},
			[]string{"route", "status"}, // status: "processed", "duplicate", "invalid_signature", "parse_error", "error"
		),
		WebhookProcessDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dh_portal_webhook_process_duration_seconds",
				Help:    "End-to-end webhook processing time by route",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"route"},
		),
		WebhookDuplicatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_webhook_duplicates_total",
				Help: "Total number of duplicate webhook deliveries skipped",
			},
			[]string{"event"},
		),

		// Call pipeline metrics
		CallsProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_calls_processed_total",
				Help: "Total number of call events processed by direction and status",
			},
			[]string{"direction", "call_status"},
		),
		CallDurationBillable: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dh_portal_call_billable_duration_seconds",
				Help:    "Billable duration of completed calls",
				Buckets: []float64{30, 60, 120, 180, 300, 600, 1200, 1800},
			},
		),

		// CRM entity metrics
		CustomersCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dh_portal_customers_created_total",
				Help: "Total number of customers created from calls",
			},
		),
		LeadsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_leads_created_total",
				Help: "Total number of leads created by source",
			},
			[]string{"source"}, // "call", "import", "ticket"
		),
		LeadsQualifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_leads_qualified_total",
				Help: "Total number of lead qualification decisions by outcome",
			},
			[]string{"outcome"}, // "qualified", "unqualified"
		),
		TicketsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dh_portal_tickets_created_total",
				Help: "Total number of tickets created",
			},
		),
		TicketsReopenedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dh_portal_tickets_reopened_total",
				Help: "Total number of closed tickets reopened by follow-up calls",
			},
		),
		TicketsConvertedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dh_portal_tickets_converted_total",
				Help: "Total number of tickets converted to leads",
			},
		),

		// Notification metrics
		NotificationsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_notifications_sent_total",
				Help: "Total number of summary notifications by outcome",
			},
			[]string{"outcome"}, // "success", "failure", "circuit_open", "suppressed"
		),
		NotificationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dh_portal_notification_duration_seconds",
				Help:    "Duration of notification delivery attempts",
				Buckets: []float64{.1, .25, .5, 1, 2, 5, 10},
			},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dh_portal_circuit_breaker_state",
				Help: "Breaker state per service: 0 closed, 1 half-open, 2 open",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dh_portal_circuit_breaker_trips_total",
				Help: "Times the notification circuit breaker has opened",
			},
		),

		// Database metrics
		DBConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dh_portal_db_connections_open",
				Help: "Open connections in the pgx pool",
			},
		),
		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dh_portal_db_connections_in_use",
				Help: "Pool connections currently checked out",
			},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dh_portal_db_query_duration_seconds",
				Help:    "Query wall time by operation",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"}, // "select", "insert", "update", "delete"
		),
		DBQueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_db_query_errors_total",
				Help: "Failed queries by operation",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dh_portal_rate_limit_hits_total",
				Help: "Total number of rate limit hits by limiter",
			},
			[]string{"limiter"},
		),
	}
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments every request: counters, latency, in-flight
// gauge, and the windowed error tracker for 5xx responses.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		m.Errors.RecordRequest()
		if wrapped.statusCode >= http.StatusInternalServerError {
			m.Errors.RecordError(CategoryHTTP)
		}

		path := normalizePath(r.URL.Path)

		m.HTTPRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(wrapped.statusCode),
		).Inc()

		m.HTTPRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(duration)
	})
}

// responseWriter remembers the status line the handler wrote.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// normalizePath collapses ids out of API paths so the path label stays
// low cardinality.
func normalizePath(path string) string {
	switch path {
	case "/", "/health", "/ready", "/live", "/metrics",
		"/api/webhooks/retell", "/api/webhooks/retell-inbound", "/api/webhooks/retell-outbound-ticket":
		return path
	}

	for _, prefix := range []string{"/api/customers/", "/api/leads/", "/api/tickets/", "/api/calls/"} {
		if strings.HasPrefix(path, prefix) {
			return prefix + ":id"
		}
	}

	return path
}

// RecordWebhook records a webhook receipt and its processing outcome.
func (m *Metrics) RecordWebhook(route, status string, duration time.Duration) {
	m.WebhooksReceivedTotal.WithLabelValues(route, status).Inc()
	m.WebhookProcessDuration.WithLabelValues(route).Observe(duration.Seconds())
	if status == "error" {
		m.Errors.RecordError(CategoryWebhook)
	}
}

// RecordWebhookDuplicate records a skipped duplicate delivery.
func (m *Metrics) RecordWebhookDuplicate(event string) {
	m.WebhookDuplicatesTotal.WithLabelValues(event).Inc()
}

// RecordCallProcessed records a processed call event.
func (m *Metrics) RecordCallProcessed(direction, callStatus string) {
	m.CallsProcessedTotal.WithLabelValues(direction, callStatus).Inc()
}

// RecordBillableDuration records the billable duration of a completed call.
func (m *Metrics) RecordBillableDuration(seconds int) {
	m.CallDurationBillable.Observe(float64(seconds))
}

// RecordCustomerCreated records a customer created from a call.
func (m *Metrics) RecordCustomerCreated() {
	m.CustomersCreatedTotal.Inc()
}

// RecordLeadCreated records a lead creation from the given source.
func (m *Metrics) RecordLeadCreated(source string) {
	m.LeadsCreatedTotal.WithLabelValues(source).Inc()
}

// RecordLeadQualified records a qualification decision.
func (m *Metrics) RecordLeadQualified(qualified bool) {
	outcome := "unqualified"
	if qualified {
		outcome = "qualified"
	}
	m.LeadsQualifiedTotal.WithLabelValues(outcome).Inc()
}

// RecordTicketCreated records a ticket creation.
func (m *Metrics) RecordTicketCreated() {
	m.TicketsCreatedTotal.Inc()
}

// RecordTicketReopened records a closed ticket reopened by a follow-up call.
func (m *Metrics) RecordTicketReopened() {
	m.TicketsReopenedTotal.Inc()
}

// RecordTicketConverted records a ticket-to-lead conversion.
func (m *Metrics) RecordTicketConverted() {
	m.TicketsConvertedTotal.Inc()
}

// RecordNotification records a notification delivery attempt.
func (m *Metrics) RecordNotification(success bool, duration time.Duration) {
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	} else {
		m.Errors.RecordError(CategoryNotification)
	}
	m.NotificationsSentTotal.WithLabelValues(outcome).Inc()
	m.NotificationDuration.Observe(duration.Seconds())
}

// RecordNotificationSuppressed records a notification skipped by company settings.
func (m *Metrics) RecordNotificationSuppressed() {
	m.NotificationsSentTotal.WithLabelValues("suppressed").Inc()
}

// RecordCircuitOpen counts a delivery rejected because the breaker tripped.
func (m *Metrics) RecordCircuitOpen() {
	m.NotificationsSentTotal.WithLabelValues("circuit_open").Inc()
	m.CircuitBreakerTrips.Inc()
}

// SetCircuitBreakerState publishes the breaker state gauge for a service.
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// UpdateDBConnections refreshes the pool gauges from pgxpool stats.
func (m *Metrics) UpdateDBConnections(open, inUse int) {
	m.DBConnectionsOpen.Set(float64(open))
	m.DBConnectionsInUse.Set(float64(inUse))
}

// RecordDBQuery observes one query; failures also feed the error tracker.
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
		m.Errors.RecordError(CategoryDatabase)
	}
}

// RecordRateLimitHit counts a request rejected by the named limiter.
func (m *Metrics) RecordRateLimitHit(limiter string) {
	m.RateLimitHitsTotal.WithLabelValues(limiter).Inc()
}
