// Package notify sends call-summary notifications to company recipients.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message represents an email to be sent.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string // Plain text body
	HTML    string // Optional HTML body
}

// Sender delivers email messages. Implementations can be swapped
// (SendGrid, SES, SMTP) without changing callers.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs messages instead of delivering them. It is used when no
// email provider is configured so the rest of the pipeline behaves the same.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the email but does not deliver it.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("email dispatch disabled, logging instead",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_length", len(msg.Body)),
	)
	return nil
}
