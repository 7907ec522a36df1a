package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
)

// sendTimeout bounds a single delivery attempt so a slow provider cannot
// hold the dispatch goroutine indefinitely.
const sendTimeout = 15 * time.Second

// Service sends call-summary notifications according to per-company settings.
type Service struct {
	sender  Sender
	metrics *metrics.Metrics
	events  *metrics.BusinessEventLogger
	logger  *zap.Logger
}

// NewService creates a notification service.
func NewService(sender Sender, m *metrics.Metrics, events *metrics.BusinessEventLogger, logger *zap.Logger) *Service {
	return &Service{
		sender:  sender,
		metrics: m,
		events:  events,
		logger:  logger,
	}
}

// SendCallSummary sends the analyzed-call summary email to every configured
// recipient for the company. Outbound calls only notify when the conversation
// actually connected. A delivery failure for one recipient does not stop the
// others; the first error is returned for logging.
func (s *Service) SendCallSummary(ctx context.Context, companyID uuid.UUID, settings *domain.NotificationSettings, call *domain.CallRecord, data *domain.ExtractedCallData) error {
	if !settings.ShouldSendSummaryEmails() {
		s.logger.Debug("summary emails disabled for company",
			zap.String("company_id", companyID.String()),
		)
		if s.metrics != nil {
			s.metrics.RecordNotificationSuppressed()
		}
		return nil
	}

	if call.Direction == domain.DirectionOutbound {
		reason := ""
		if call.DisconnectReason != nil {
			reason = *call.DisconnectReason
		}
		if !domain.IsSuccessfulDisconnect(reason) {
			s.logger.Debug("skipping summary for unconnected outbound call",
				zap.String("call_id", call.CallID),
				zap.String("disconnect_reason", reason),
			)
			if s.metrics != nil {
				s.metrics.RecordNotificationSuppressed()
			}
			return nil
		}
	}

	msg := Message{
		Subject: summarySubject(call, data),
		Body:    summaryBody(call, data),
	}

	var firstErr error
	for _, recipient := range settings.SummaryEmailRecipients {
		msg.To = recipient

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		start := time.Now()
		err := s.sender.Send(sendCtx, msg)
		cancel()

		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordNotification(err == nil, elapsed)
		}
		if s.events != nil {
			s.events.NotificationSent(ctx, companyID, recipient, elapsed, err == nil)
		}
		if err != nil {
			s.logger.Error("summary email delivery failed",
				zap.Error(err),
				zap.String("call_id", call.CallID),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// summarySubject builds the email subject line.
func summarySubject(call *domain.CallRecord, data *domain.ExtractedCallData) string {
	label := "Inbound"
	if call.Direction == domain.DirectionOutbound {
		label = "Outbound"
	}

	caller := strings.TrimSpace(data.FirstName + " " + data.LastName)
	if caller == "" {
		caller = call.FromNumber
	}
	return fmt.Sprintf("%s call summary: %s", label, caller)
}

// summaryBody renders the plain-text summary email.
func summaryBody(call *domain.CallRecord, data *domain.ExtractedCallData) string {
	var b strings.Builder

	writeLine := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	writeLine("Call ID", call.CallID)
	writeLine("From", call.FromNumber)
	writeLine("To", call.ToNumber)
	writeLine("Status", string(call.Status))
	if call.StartTimestamp != nil {
		writeLine("Started", call.StartTimestamp.Format("January 2, 2006 at 3:04 PM MST"))
	}
	writeLine("Duration", call.FormattedDuration())

	caller := strings.TrimSpace(data.FirstName + " " + data.LastName)
	writeLine("Caller", caller)
	writeLine("Email", data.Email)
	writeLine("Pest issue", data.PestIssue)

	var addressParts []string
	for _, p := range []string{data.StreetAddress, data.City, strings.TrimSpace(data.State + " " + data.ZipCode)} {
		if p != "" {
			addressParts = append(addressParts, p)
		}
	}
	writeLine("Address", strings.Join(addressParts, ", "))
	writeLine("Home size", data.HomeSize)
	writeLine("Yard size", data.YardSize)
	writeLine("Preferred service time", data.PreferredServiceTime)
	writeLine("Sentiment", data.Sentiment)

	if data.Summary != "" {
		b.WriteString("\nSummary:\n")
		b.WriteString(data.Summary)
		b.WriteString("\n")
	}

	return b.String()
}
