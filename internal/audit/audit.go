// Package audit records security-relevant events as structured log
// entries under a dedicated "audit" logger name, so they can be routed
// to long-term retention separately from operational logs.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType names an audit event. The dotted hierarchy groups related
// events for downstream filtering.
type EventType string

const (
	EventRateLimitExceeded EventType = "authz.ratelimit.exceeded"

	EventWebhookReceived       EventType = "webhook.received"
	EventWebhookValidationFail EventType = "webhook.validation.failed"

	EventLeadStatusChanged EventType = "data.lead.status_changed"
	EventTicketConverted   EventType = "data.ticket.converted"
	EventSettingChanged    EventType = "data.setting.changed"
	EventLeadsImported     EventType = "data.leads.imported"

	EventServiceStarted  EventType = "system.started"
	EventServiceStopping EventType = "system.stopping"
)

// Severity ranks how urgently an event needs attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityLevels = map[Severity]zapcore.Level{
	SeverityInfo:     zapcore.InfoLevel,
	SeverityWarning:  zapcore.WarnLevel,
	SeverityError:    zapcore.ErrorLevel,
	SeverityCritical: zapcore.ErrorLevel,
}

// Event is a single audit record. Action and Outcome are always set;
// the remaining fields are filled when the event has an actor, a
// source, or a resource to attribute.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`

	// ActorType is "system", "webhook", or "api_client".
	ActorType string `json:"actor_type,omitempty"`
	ActorName string `json:"actor_name,omitempty"`

	SourceIP  string `json:"source_ip,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`

	Action string `json:"action"`
	// Outcome is "success", "failure", or "denied".
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Logger emits audit events through a named zap logger.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(baseLogger *zap.Logger) *Logger {
	return &Logger{logger: baseLogger.Named("audit")}
}

// Log writes the event at the level its severity maps to. A missing ID
// or timestamp is assigned here, and the assignment is visible to the
// caller through the event pointer.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	level, ok := severityLevels[event.Severity]
	if !ok {
		level = zapcore.InfoLevel
	}

	fields := make([]zap.Field, 0, 14)
	fields = append(fields,
		zap.String("audit_id", event.ID),
		zap.Time("audit_timestamp", event.Timestamp),
		zap.String("event_type", string(event.Type)),
		zap.String("severity", string(event.Severity)),
		zap.String("action", event.Action),
		zap.String("outcome", event.Outcome),
	)
	fields = appendNonEmpty(fields, "actor_type", event.ActorType)
	fields = appendNonEmpty(fields, "actor_name", event.ActorName)
	fields = appendNonEmpty(fields, "source_ip", event.SourceIP)
	fields = appendNonEmpty(fields, "request_id", event.RequestID)
	fields = appendNonEmpty(fields, "resource_type", event.ResourceType)
	fields = appendNonEmpty(fields, "resource_id", event.ResourceID)
	fields = appendNonEmpty(fields, "reason", event.Reason)
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if ce := l.logger.Check(level, "security audit event"); ce != nil {
		ce.Write(fields...)
	}
}

func appendNonEmpty(fields []zap.Field, key, value string) []zap.Field {
	if value == "" {
		return fields
	}
	return append(fields, zap.String(key, value))
}

// RateLimitExceeded records a request rejected by a rate limiter.
func (l *Logger) RateLimitExceeded(ctx context.Context, identifier, ip, requestID, limiterType string) {
	l.Log(ctx, &Event{
		Type:      EventRateLimitExceeded,
		Severity:  SeverityWarning,
		ActorType: "client",
		ActorName: identifier,
		SourceIP:  ip,
		RequestID: requestID,
		Action:    "request rate limited",
		Outcome:   "denied",
		Reason:    "rate limit exceeded",
		Metadata:  map[string]interface{}{"limiter_type": limiterType},
	})
}

// WebhookReceived records a verified inbound webhook delivery.
func (l *Logger) WebhookReceived(ctx context.Context, route, callID, ip, requestID string) {
	l.Log(ctx, &Event{
		Type:         EventWebhookReceived,
		Severity:     SeverityInfo,
		ActorType:    "webhook",
		ActorName:    route,
		SourceIP:     ip,
		RequestID:    requestID,
		ResourceType: "call",
		ResourceID:   callID,
		Action:       "webhook received",
		Outcome:      "success",
	})
}

// WebhookValidationFailed records a delivery rejected before processing.
func (l *Logger) WebhookValidationFailed(ctx context.Context, route, ip, requestID, reason string) {
	l.Log(ctx, &Event{
		Type:      EventWebhookValidationFail,
		Severity:  SeverityWarning,
		ActorType: "webhook",
		ActorName: route,
		SourceIP:  ip,
		RequestID: requestID,
		Action:    "webhook validation",
		Outcome:   "failure",
		Reason:    reason,
	})
}

// LeadStatusChanged records a manual status transition made through the API.
func (l *Logger) LeadStatusChanged(ctx context.Context, leadID, ip, requestID, from, to string) {
	l.Log(ctx, &Event{
		Type:         EventLeadStatusChanged,
		Severity:     SeverityInfo,
		ActorType:    "api_client",
		SourceIP:     ip,
		RequestID:    requestID,
		ResourceType: "lead",
		ResourceID:   leadID,
		Action:       "lead status changed",
		Outcome:      "success",
		Metadata:     map[string]interface{}{"from": from, "to": to},
	})
}

// TicketConverted records a support ticket promoted to a sales lead.
func (l *Logger) TicketConverted(ctx context.Context, ticketID, leadID, ip, requestID string) {
	l.Log(ctx, &Event{
		Type:         EventTicketConverted,
		Severity:     SeverityInfo,
		ActorType:    "api_client",
		SourceIP:     ip,
		RequestID:    requestID,
		ResourceType: "ticket",
		ResourceID:   ticketID,
		Action:       "ticket converted to lead",
		Outcome:      "success",
		Metadata:     map[string]interface{}{"lead_id": leadID},
	})
}

// TicketEscalated records a ticket-to-support-case conversion through the API.
func (l *Logger) TicketEscalated(ctx context.Context, ticketID, caseID, ip, requestID string) {
	l.Log(ctx, &Event{
		Type:         EventTicketConverted,
		Severity:     SeverityInfo,
		ActorType:    "api_client",
		SourceIP:     ip,
		RequestID:    requestID,
		ResourceType: "ticket",
		ResourceID:   ticketID,
		Action:       "ticket converted to support case",
		Outcome:      "success",
		Metadata:     map[string]interface{}{"support_case_id": caseID},
	})
}

// SettingChanged records a company configuration change. Warning
// severity because settings control notification and routing behavior.
func (l *Logger) SettingChanged(ctx context.Context, companyID, settingKey, ip, requestID string) {
	l.Log(ctx, &Event{
		Type:         EventSettingChanged,
		Severity:     SeverityWarning,
		ActorType:    "api_client",
		SourceIP:     ip,
		RequestID:    requestID,
		ResourceType: "setting",
		ResourceID:   settingKey,
		Action:       "setting changed",
		Outcome:      "success",
		Metadata:     map[string]interface{}{"company_id": companyID},
	})
}

// LeadsImported records a bulk CSV import with its accepted and skipped counts.
func (l *Logger) LeadsImported(ctx context.Context, companyID, ip, requestID string, imported, skipped int) {
	l.Log(ctx, &Event{
		Type:         EventLeadsImported,
		Severity:     SeverityInfo,
		ActorType:    "api_client",
		SourceIP:     ip,
		RequestID:    requestID,
		ResourceType: "lead",
		Action:       "leads imported",
		Outcome:      "success",
		Metadata: map[string]interface{}{
			"company_id": companyID,
			"imported":   imported,
			"skipped":    skipped,
		},
	})
}

// ServiceStarted records process startup.
func (l *Logger) ServiceStarted(ctx context.Context, version, environment string) {
	l.Log(ctx, &Event{
		Type:      EventServiceStarted,
		Severity:  SeverityInfo,
		ActorType: "system",
		Action:    "service started",
		Outcome:   "success",
		Metadata:  map[string]interface{}{"version": version, "environment": environment},
	})
}

// ServiceStopping records the beginning of graceful shutdown.
func (l *Logger) ServiceStopping(ctx context.Context, reason string) {
	l.Log(ctx, &Event{
		Type:      EventServiceStopping,
		Severity:  SeverityInfo,
		ActorType: "system",
		Action:    "service stopping",
		Outcome:   "success",
		Reason:    reason,
	})
}
