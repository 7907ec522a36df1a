package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallOutcome is the event emitted to the external automation dispatcher
// when an analyzed call turns out to have been started by a workflow.
type CallOutcome struct {
	CallID    string
	CompanyID uuid.UUID
	Direction string
	Action    string
	Status    string
}

// AutomationDispatcher hands call outcomes to the external workflow engine.
// Implementations are fire-and-forget boundaries like Sender.
type AutomationDispatcher interface {
	EmitCallOutcome(ctx context.Context, outcome CallOutcome) error
}

// LogAutomationDispatcher logs outcomes instead of delivering them. It is
// used when no dispatcher endpoint is configured.
type LogAutomationDispatcher struct {
	logger *zap.Logger
}

// NewLogAutomationDispatcher creates a dispatcher that only logs.
func NewLogAutomationDispatcher(logger *zap.Logger) *LogAutomationDispatcher {
	return &LogAutomationDispatcher{logger: logger}
}

// EmitCallOutcome logs the outcome but does not deliver it.
func (d *LogAutomationDispatcher) EmitCallOutcome(ctx context.Context, outcome CallOutcome) error {
	d.logger.Info("automation dispatch disabled, logging instead",
		zap.String("call_id", outcome.CallID),
		zap.String("company_id", outcome.CompanyID.String()),
		zap.String("direction", outcome.Direction),
		zap.String("action", outcome.Action),
		zap.String("call_status", outcome.Status),
	)
	return nil
}
