package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// WebhookEventRepository persists the duplicate-delivery ledger. The
// provider retries webhook deliveries, so each (call_id, event) pair is
// recorded on first processing and replays hit the unique constraint.
type WebhookEventRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new repository instance.
func NewWebhookEventRepository(pool *pgxpool.Pool, logger *zap.Logger) *WebhookEventRepository {
	return &WebhookEventRepository{
		pool:   pool,
		logger: logger,
	}
}

// Record marks the (callID, event) pair as processed. The ON CONFLICT
// no-op makes RowsAffected the replay signal: 1 row means first delivery,
// 0 means we've seen this pair before.
func (r *WebhookEventRepository) Record(ctx context.Context, callID, event string, receivedAt time.Time) (bool, error) {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO webhook_events (call_id, event, received_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (call_id, event) DO NOTHING`

	result, err := r.pool.Exec(ctx, query, callID, event, receivedAt)
	if err != nil {
		return false, apperrors.DatabaseError("WebhookEventRepository.Record", err)
	}

	first := result.RowsAffected() > 0
	if !first {
		r.logger.Info("duplicate webhook delivery detected",
			zap.String("call_id", callID),
			zap.String("event", event),
		)
	}
	return first, nil
}

// CleanupOlderThan removes ledger rows past the retention window. It's safe
// to call periodically.
func (r *WebhookEventRepository) CleanupOlderThan(ctx context.Context, cutoff time.Time) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM webhook_events WHERE received_at <= $1`, cutoff); err != nil {
		return apperrors.DatabaseError("WebhookEventRepository.CleanupOlderThan", err)
	}
	return nil
}
