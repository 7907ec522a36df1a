package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/audit"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/middleware"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/retell"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/service"
)

// Webhook routes. The inbound and outbound-ticket routes carry signed
// payloads; the plain route is the legacy bearer-token update endpoint.
const (
	RouteInbound  = "/webhooks/retell-inbound"
	RouteOutbound = "/webhooks/retell-outbound-ticket"
	RouteGeneric  = "/webhooks/retell"
)

// WebhookHandler handles incoming Retell webhooks.
type WebhookHandler struct {
	webhooks      *service.WebhookService
	webhookSecret string
	bearerToken   string
	logger        *zap.Logger
	metrics       *metrics.Metrics
	events        *metrics.BusinessEventLogger
	audit         *audit.Logger
}

// WebhookHandlerConfig holds configuration for WebhookHandler.
type WebhookHandlerConfig struct {
	WebhookService *service.WebhookService
	WebhookSecret  string
	BearerToken    string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Events         *metrics.BusinessEventLogger
	Audit          *audit.Logger
}

// NewWebhookHandler creates a new WebhookHandler with all required dependencies.
func NewWebhookHandler(cfg WebhookHandlerConfig) *WebhookHandler {
	if cfg.Logger == nil {
		panic("logger is required")
	}
	return &WebhookHandler{
		webhooks:      cfg.WebhookService,
		webhookSecret: cfg.WebhookSecret,
		bearerToken:   cfg.BearerToken,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		events:        cfg.Events,
		audit:         cfg.Audit,
	}
}

// RegisterRoutes registers webhook routes on the router.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	limit := middleware.BodySizeLimiterWebhook()
	r.With(limit).Post(RouteInbound, h.HandleSigned)
	r.With(limit).Post(RouteOutbound, h.HandleSigned)
	r.With(limit).Post(RouteGeneric, h.HandleGeneric)
}

// webhookResponse is the acknowledgement body for webhook deliveries.
type webhookResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Result  *service.Result `json:"result,omitempty"`
}

// HandleSigned processes signature-verified webhook deliveries for both
// pipeline routes. The route only affects logging and metrics; dispatch is
// decided by the agent's configured direction.
func (h *WebhookHandler) HandleSigned(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route := r.URL.Path

	body, err := retell.ReadAndVerify(r, h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook verification failed",
			zap.String("route", route),
			zap.Error(err),
		)
		h.recordWebhook(route, "invalid_signature", start)
		h.recordEvent(r, route, "", "", false)
		h.auditRejected(r, route, err)
		Error(w, r, h.logger, err)
		return
	}

	h.process(w, r, route, body, start, h.webhooks.Process)
}

// HandleGeneric processes the legacy bearer-token route, which updates
// existing call records without creating CRM entities.
func (h *WebhookHandler) HandleGeneric(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route := r.URL.Path

	if err := retell.VerifyBearer(r, h.bearerToken); err != nil {
		h.logger.Warn("webhook authorization failed",
			zap.String("route", route),
			zap.Error(err),
		)
		h.recordWebhook(route, "invalid_signature", start)
		h.recordEvent(r, route, "", "", false)
		h.auditRejected(r, route, err)
		Error(w, r, h.logger, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.recordWebhook(route, "parse_error", start)
		Error(w, r, h.logger, apperrors.PayloadMalformed(err))
		return
	}

	h.process(w, r, route, body, start, h.webhooks.ProcessGeneric)
}

func (h *WebhookHandler) process(
	w http.ResponseWriter,
	r *http.Request,
	route string,
	body []byte,
	start time.Time,
	handle func(ctx context.Context, hook *retell.Webhook) (*service.Result, error),
) {
	hook, err := retell.ParsePayload(body)
	if err != nil {
		h.logger.Warn("webhook payload rejected",
			zap.String("route", route),
			zap.Error(err),
		)
		h.recordWebhook(route, "parse_error", start)
		h.recordEvent(r, route, "", "", false)
		Error(w, r, h.logger, err)
		return
	}

	h.recordEvent(r, route, hook.Event, hook.Call.CallID, true)
	if h.audit != nil {
		h.audit.WebhookReceived(r.Context(), route, hook.Call.CallID, r.RemoteAddr, middleware.GetRequestID(r.Context()))
	}

	if !retell.KnownEvent(hook.Event) {
		h.logger.Info("ignoring unhandled webhook event",
			zap.String("event", hook.Event),
			zap.String("call_id", hook.Call.CallID),
		)
		h.recordWebhook(route, "processed", start)
		JSON(w, r, http.StatusOK, webhookResponse{Success: true, Message: "event type not handled"})
		return
	}

	result, err := handle(r.Context(), hook)
	if err != nil {
		h.recordWebhook(route, "error", start)
		Error(w, r, h.logger, err)
		return
	}

	status := "processed"
	if result.Duplicate {
		status = "duplicate"
	}
	h.recordWebhook(route, status, start)

	h.logger.Info("webhook processed",
		zap.String("route", route),
		zap.String("event", hook.Event),
		zap.String("call_id", hook.Call.CallID),
		zap.String("action", result.Action),
		zap.Bool("duplicate", result.Duplicate),
	)
	JSON(w, r, http.StatusOK, webhookResponse{Success: true, Result: result})
}

func (h *WebhookHandler) auditRejected(r *http.Request, route string, err error) {
	if h.audit == nil {
		return
	}
	h.audit.WebhookValidationFailed(r.Context(), route, r.RemoteAddr, middleware.GetRequestID(r.Context()), err.Error())
}

func (h *WebhookHandler) recordWebhook(route, status string, started time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordWebhook(route, status, time.Since(started))
}

func (h *WebhookHandler) recordEvent(r *http.Request, route, event, callID string, valid bool) {
	if h.events == nil {
		return
	}
	h.events.WebhookReceived(r.Context(), route, event, callID, valid)
}
