package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// ErrNotFound is returned when a query matches no rows. It carries the
// not-found code so callers can test it with apperrors.IsNotFound as well
// as errors.Is.
var ErrNotFound error = apperrors.NotFound("record")

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. If constraint is non-empty, the violated constraint name must
// match as well.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Per-operation timeout ceilings. Every repository method wraps its
// context with one of these so a stuck query cannot hold a pool
// connection indefinitely.
const (
	DefaultQueryTimeout       = 5 * time.Second
	DefaultListQueryTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 10 * time.Second
	DefaultTransactionTimeout = 30 * time.Second
)

// WithQueryTimeout bounds a point lookup.
func WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultQueryTimeout)
}

// WithListQueryTimeout bounds a list or filtered query.
func WithListQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultListQueryTimeout)
}

// WithWriteTimeout bounds an insert, update, or delete.
func WithWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultWriteTimeout)
}

// WithTransactionTimeout bounds a multi-statement transaction.
func WithTransactionTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, DefaultTransactionTimeout)
}

// withTimeout caps ctx at d unless the caller already imposed a tighter
// deadline, in which case the parent's deadline wins and the returned
// cancel is a no-op.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
