package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/sanitize"
)

// BusinessEventLogger emits one structured log line per business event.
// Prometheus counters answer "how many"; these lines answer "which call,
// which lead" when someone has to reconstruct what happened.
type BusinessEventLogger struct {
	logger *zap.Logger
}

// NewBusinessEventLogger creates a new business event logger.
func NewBusinessEventLogger(logger *zap.Logger) *BusinessEventLogger {
	return &BusinessEventLogger{logger: logger.Named("business_events")}
}

// emit writes one event line. Every event carries event_type and an
// emission timestamp alongside its own fields.
func (l *BusinessEventLogger) emit(level zapcore.Level, name, eventType string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("event_type", eventType),
		zap.Time("timestamp", time.Now().UTC()),
	)
	if ce := l.logger.Check(level, name); ce != nil {
		ce.Write(fields...)
	}
}

// CallReceived logs when a call_started event lands.
func (l *BusinessEventLogger) CallReceived(ctx context.Context, callID, direction, fromNumber string) {
	l.emit(zapcore.InfoLevel, "call_received", "call.received",
		zap.String("call_id", callID),
		zap.String("direction", direction),
		zap.String("from_number", sanitize.Phone(fromNumber)),
	)
}

// CallCompleted logs when a call ends.
func (l *BusinessEventLogger) CallCompleted(ctx context.Context, callID, status string, billableSeconds int) {
	l.emit(zapcore.InfoLevel, "call_completed", "call.completed",
		zap.String("call_id", callID),
		zap.String("status", status),
		zap.Int("billable_seconds", billableSeconds),
	)
}

// CustomerCreated logs when a new customer record is created from a call.
func (l *BusinessEventLogger) CustomerCreated(ctx context.Context, customerID, companyID uuid.UUID, phone string) {
	l.emit(zapcore.InfoLevel, "customer_created", "customer.created",
		zap.String("customer_id", customerID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("phone", sanitize.Phone(phone)),
	)
}

// LeadCreated logs a lead creation.
func (l *BusinessEventLogger) LeadCreated(ctx context.Context, leadID uuid.UUID, source, callID string) {
	l.emit(zapcore.InfoLevel, "lead_created", "lead.created",
		zap.String("lead_id", leadID.String()),
		zap.String("source", source),
		zap.String("call_id", callID),
	)
}

// LeadQualified logs a lead qualification decision made from call analysis.
func (l *BusinessEventLogger) LeadQualified(ctx context.Context, leadID uuid.UUID, qualified bool, pestIssue string) {
	name := "lead_unqualified"
	if qualified {
		name = "lead_qualified"
	}
	fields := []zap.Field{
		zap.String("lead_id", leadID.String()),
		zap.Bool("qualified", qualified),
	}
	if pestIssue != "" {
		fields = append(fields, zap.String("pest_issue", pestIssue))
	}
	l.emit(zapcore.InfoLevel, name, "lead.qualified", fields...)
}

// TicketReopened logs when a closed ticket is reopened by a follow-up call.
func (l *BusinessEventLogger) TicketReopened(ctx context.Context, ticketID uuid.UUID, callID string) {
	l.emit(zapcore.InfoLevel, "ticket_reopened", "ticket.reopened",
		zap.String("ticket_id", ticketID.String()),
		zap.String("call_id", callID),
	)
}

// TicketConverted logs a ticket-to-lead conversion.
func (l *BusinessEventLogger) TicketConverted(ctx context.Context, ticketID, leadID uuid.UUID) {
	l.emit(zapcore.InfoLevel, "ticket_converted", "ticket.converted",
		zap.String("ticket_id", ticketID.String()),
		zap.String("lead_id", leadID.String()),
	)
}

// TicketEscalated logs a ticket-to-support-case conversion.
func (l *BusinessEventLogger) TicketEscalated(ctx context.Context, ticketID, caseID uuid.UUID) {
	l.emit(zapcore.InfoLevel, "ticket_escalated", "ticket.escalated",
		zap.String("ticket_id", ticketID.String()),
		zap.String("support_case_id", caseID.String()),
	)
}

// WebhookReceived logs a webhook delivery; invalid deliveries log at warn.
func (l *BusinessEventLogger) WebhookReceived(ctx context.Context, route, eventType, callID string, valid bool) {
	level, name := zapcore.InfoLevel, "webhook_received"
	if !valid {
		level, name = zapcore.WarnLevel, "webhook_invalid"
	}
	l.emit(level, name, "webhook.received",
		zap.String("route", route),
		zap.String("webhook_event_type", eventType),
		zap.String("call_id", callID),
		zap.Bool("valid", valid),
	)
}

// NotificationSent logs a summary notification delivery attempt.
func (l *BusinessEventLogger) NotificationSent(ctx context.Context, companyID uuid.UUID, recipient string, duration time.Duration, success bool) {
	level, name := zapcore.InfoLevel, "notification_sent"
	if !success {
		level, name = zapcore.WarnLevel, "notification_failed"
	}
	l.emit(level, name, "notification.sent",
		zap.String("company_id", companyID.String()),
		zap.String("recipient", sanitize.Email(recipient)),
		zap.Duration("duration", duration),
		zap.Bool("success", success),
	)
}
