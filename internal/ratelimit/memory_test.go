package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/clock"
)

func TestMemoryStore_AllowWithinLimit(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := s.Allow(ctx, "10.0.0.1", 5, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Remaining != 5-(i+1) {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, 5-(i+1), result.Remaining)
		}
	}
}

func TestMemoryStore_BlocksOverLimit(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Allow(ctx, "10.0.0.2", 3, time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	result, err := s.Allow(ctx, "10.0.0.2", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("fourth request should be blocked")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("unexpected retry-after %v", result.RetryAfter)
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.Allow(ctx, "10.0.0.3", 3, time.Minute)
	}

	result, err := s.Allow(ctx, "10.0.0.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Error("different key should not be limited")
	}
}

func TestMemoryStore_WindowResets(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	mock := clock.NewMock(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	s.clk = mock

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s.Allow(ctx, "10.0.0.5", 2, time.Minute)
	}

	result, _ := s.Allow(ctx, "10.0.0.5", 2, time.Minute)
	if result.Allowed {
		t.Fatal("should be blocked within window")
	}

	// Advance past the window
	mock.Advance(61 * time.Second)

	result, _ = s.Allow(ctx, "10.0.0.5", 2, time.Minute)
	if !result.Allowed {
		t.Error("should be allowed after window reset")
	}
	if result.Remaining != 1 {
		t.Errorf("expected fresh window with 1 remaining, got %d", result.Remaining)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Limit != 50 {
		t.Errorf("expected limit 50, got %d", cfg.Limit)
	}
	if cfg.Window != time.Minute {
		t.Errorf("expected 1m window, got %v", cfg.Window)
	}
}
