package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AutomationLogRepository implements domain.AutomationLogRepository using
// PostgreSQL. call_automation_log is owned by the external workflow engine;
// only reads happen here.
type AutomationLogRepository struct {
	pool *pgxpool.Pool
}

// NewAutomationLogRepository creates a new AutomationLogRepository.
func NewAutomationLogRepository(pool *pgxpool.Pool) *AutomationLogRepository {
	return &AutomationLogRepository{pool: pool}
}

// WasAutomated reports whether the workflow engine logged this call.
func (r *AutomationLogRepository) WasAutomated(ctx context.Context, callID string) (bool, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	var exists bool
	err := querier(ctx, r.pool).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM call_automation_log WHERE call_id = $1)",
		callID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check automation log: %w", err)
	}

	return exists, nil
}
