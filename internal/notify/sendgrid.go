package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/circuitbreaker"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/config"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/sanitize"
)

// SendGridSender delivers email via the SendGrid API, guarded by a circuit
// breaker so a provider outage cannot stall webhook processing.
type SendGridSender struct {
	client         *sendgrid.Client
	fromAddress    string
	fromName       string
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewSendGridSender creates a SendGrid email sender. Returns nil when no API
// key is configured; callers should fall back to a LogSender.
func NewSendGridSender(cfg *config.EmailConfig, logger *zap.Logger) *SendGridSender {
	if cfg.SendGridAPIKey == "" {
		return nil
	}

	cbConfig := &circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		OpenTimeout:         60 * time.Second,
		HalfOpenMaxRequests: 2,
	}

	return &SendGridSender{
		client:         sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromAddress:    cfg.FromAddress,
		fromName:       cfg.FromName,
		circuitBreaker: circuitbreaker.New("sendgrid", cbConfig, logger),
		logger:         logger,
	}
}

// Send delivers an email through SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	return s.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return s.doSend(ctx, msg)
	})
}

// CircuitBreakerStats returns the current circuit breaker statistics.
func (s *SendGridSender) CircuitBreakerStats() circuitbreaker.Stats {
	return s.circuitBreaker.Stats()
}

// IsCircuitOpen reports whether the email circuit breaker is open.
func (s *SendGridSender) IsCircuitOpen() bool {
	return s.circuitBreaker.IsOpen()
}

func (s *SendGridSender) doSend(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromAddress)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed",
			zap.Error(err),
			zap.String("to", sanitize.Email(msg.To)),
		)
		return fmt.Errorf("sendgrid send: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
			zap.String("to", sanitize.Email(msg.To)),
		)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Debug("email sent",
		zap.String("to", sanitize.Email(msg.To)),
		zap.String("subject", msg.Subject),
		zap.Int("status", response.StatusCode),
	)
	return nil
}
