package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/database"
)

// querier returns the transaction bound to ctx if present, otherwise the
// pool. This lets repositories participate in caller-managed transactions
// (ticket-to-lead conversion) without changing their signatures.
func querier(ctx context.Context, pool *pgxpool.Pool) database.Querier {
	if tx := database.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}
