package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// QueryLoggerConfig sets the slow-query thresholds.
type QueryLoggerConfig struct {
	// SlowQueryThreshold logs queries at WARN above this duration.
	SlowQueryThreshold time.Duration
	// VerySlowQueryThreshold logs queries at ERROR above this duration.
	VerySlowQueryThreshold time.Duration
}

// DefaultQueryLoggerConfig returns thresholds tuned for webhook-path queries,
// which should stay well under the provider's retry timeout.
func DefaultQueryLoggerConfig() *QueryLoggerConfig {
	return &QueryLoggerConfig{
		SlowQueryThreshold:     100 * time.Millisecond,
		VerySlowQueryThreshold: 500 * time.Millisecond,
	}
}

// QueryLogger is a pgx.QueryTracer that logs slow and failed queries and
// keeps running counters.
type QueryLogger struct {
	config *QueryLoggerConfig
	logger *zap.Logger

	totalQueries  int64
	slowQueries   int64
	failedQueries int64

	mu              sync.Mutex
	totalDuration   time.Duration
	slowestQuery    string
	slowestDuration time.Duration
}

// NewQueryLogger creates a query tracer.
func NewQueryLogger(cfg *QueryLoggerConfig, logger *zap.Logger) *QueryLogger {
	if cfg == nil {
		cfg = DefaultQueryLoggerConfig()
	}
	return &QueryLogger{
		config: cfg,
		logger: logger.Named("query"),
	}
}

type queryTrace struct {
	startedAt time.Time
	sql       string
}

type queryTraceKey struct{}

// TraceQueryStart implements pgx.QueryTracer.
func (ql *QueryLogger) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryTraceKey{}, &queryTrace{
		startedAt: time.Now(),
		sql:       data.SQL,
	})
}

// TraceQueryEnd implements pgx.QueryTracer.
func (ql *QueryLogger) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	trace, ok := ctx.Value(queryTraceKey{}).(*queryTrace)
	if !ok {
		return
	}

	duration := time.Since(trace.startedAt)
	atomic.AddInt64(&ql.totalQueries, 1)

	ql.mu.Lock()
	ql.totalDuration += duration
	if duration > ql.slowestDuration {
		ql.slowestDuration = duration
		ql.slowestQuery = truncateSQL(trace.sql, 200)
	}
	ql.mu.Unlock()

	if data.Err != nil {
		atomic.AddInt64(&ql.failedQueries, 1)
		ql.logger.Error("query failed",
			zap.String("sql", truncateSQL(trace.sql, 500)),
			zap.Duration("duration", duration),
			zap.Error(data.Err),
		)
		return
	}

	switch {
	case duration >= ql.config.VerySlowQueryThreshold:
		atomic.AddInt64(&ql.slowQueries, 1)
		ql.logger.Error("very slow query",
			zap.String("sql", truncateSQL(trace.sql, 500)),
			zap.Duration("duration", duration),
			zap.String("command_tag", data.CommandTag.String()),
		)
	case duration >= ql.config.SlowQueryThreshold:
		atomic.AddInt64(&ql.slowQueries, 1)
		ql.logger.Warn("slow query",
			zap.String("sql", truncateSQL(trace.sql, 500)),
			zap.Duration("duration", duration),
			zap.String("command_tag", data.CommandTag.String()),
		)
	}
}

// QuerySummary is a snapshot of the tracer's counters.
type QuerySummary struct {
	TotalQueries    int64
	SlowQueries     int64
	FailedQueries   int64
	AvgDuration     time.Duration
	SlowestQuery    string
	SlowestDuration time.Duration
}

// Summary returns the counters accumulated so far.
func (ql *QueryLogger) Summary() QuerySummary {
	total := atomic.LoadInt64(&ql.totalQueries)

	ql.mu.Lock()
	defer ql.mu.Unlock()

	var avg time.Duration
	if total > 0 {
		avg = ql.totalDuration / time.Duration(total)
	}
	return QuerySummary{
		TotalQueries:    total,
		SlowQueries:     atomic.LoadInt64(&ql.slowQueries),
		FailedQueries:   atomic.LoadInt64(&ql.failedQueries),
		AvgDuration:     avg,
		SlowestQuery:    ql.slowestQuery,
		SlowestDuration: ql.slowestDuration,
	}
}

func truncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen {
		return sql
	}
	return sql[:maxLen-3] + "..."
}
