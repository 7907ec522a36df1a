package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultQueryLoggerConfig(t *testing.T) {
	cfg := DefaultQueryLoggerConfig()
	if cfg.SlowQueryThreshold != 100*time.Millisecond {
		t.Errorf("slow threshold = %v", cfg.SlowQueryThreshold)
	}
	if cfg.VerySlowQueryThreshold != 500*time.Millisecond {
		t.Errorf("very slow threshold = %v", cfg.VerySlowQueryThreshold)
	}
}

func TestQueryLogger_TracksQueries(t *testing.T) {
	ql := NewQueryLogger(nil, zap.NewNop())

	ctx := ql.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "SELECT id FROM leads",
	})
	ql.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	summary := ql.Summary()
	if summary.TotalQueries != 1 {
		t.Errorf("total = %d, want 1", summary.TotalQueries)
	}
	if summary.FailedQueries != 0 {
		t.Errorf("failed = %d, want 0", summary.FailedQueries)
	}
	if summary.SlowestQuery != "SELECT id FROM leads" {
		t.Errorf("slowest query = %q", summary.SlowestQuery)
	}
}

func TestQueryLogger_CountsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	ql := NewQueryLogger(nil, zap.New(core))

	ctx := ql.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "UPDATE tickets SET status = $1",
	})
	ql.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("connection reset")})

	summary := ql.Summary()
	if summary.FailedQueries != 1 {
		t.Errorf("failed = %d, want 1", summary.FailedQueries)
	}
	if logs.FilterMessage("query failed").Len() != 1 {
		t.Error("expected a query failed log entry")
	}
}

func TestQueryLogger_LogsSlowQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ql := NewQueryLogger(&QueryLoggerConfig{
		SlowQueryThreshold:     time.Nanosecond,
		VerySlowQueryThreshold: time.Hour,
	}, zap.New(core))

	ctx := ql.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "SELECT * FROM call_records",
	})
	time.Sleep(time.Millisecond)
	ql.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	if logs.FilterMessage("slow query").Len() != 1 {
		t.Error("expected a slow query log entry")
	}
	if ql.Summary().SlowQueries != 1 {
		t.Errorf("slow = %d, want 1", ql.Summary().SlowQueries)
	}
}

func TestQueryLogger_EndWithoutStart(t *testing.T) {
	ql := NewQueryLogger(nil, zap.NewNop())

	// Must not panic or count anything
	ql.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	if total := ql.Summary().TotalQueries; total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func TestTruncateSQL(t *testing.T) {
	short := "SELECT 1"
	if got := truncateSQL(short, 200); got != short {
		t.Errorf("short SQL should pass through, got %q", got)
	}

	long := strings.Repeat("x", 600)
	got := truncateSQL(long, 500)
	if len(got) != 500 {
		t.Errorf("truncated length = %d, want 500", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated SQL should end with ellipsis")
	}
}
