// Package database manages the PostgreSQL connection pool, schema
// migrations, and transaction plumbing shared by the repositories.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/config"
)

// Pool tuning that is not worth exposing through config.
const (
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = time.Minute
)

// DB owns the pgx connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// New opens a connection pool and verifies it with a ping. The pool's
// query tracer feeds the db_query metrics, so New is the single place
// database observability gets wired.
func New(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MaxIdleConnections)
	poolCfg.MaxConnLifetime = cfg.ConnectionMaxLifetime
	poolCfg.MaxConnIdleTime = maxConnIdleTime
	poolCfg.HealthCheckPeriod = healthCheckPeriod
	poolCfg.ConnConfig.Tracer = NewQueryLogger(nil, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.Int("max_connections", cfg.MaxConnections),
	)
	return &DB{Pool: pool, logger: logger}, nil
}

// Close shuts down the pool. Safe on a DB that never connected.
func (db *DB) Close() {
	if db.Pool == nil {
		return
	}
	db.Pool.Close()
	db.logger.Info("database connection closed")
}

// Ping reports whether the database is reachable. The health endpoint
// depends on this.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stats exposes pool statistics for the metrics collector.
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}
