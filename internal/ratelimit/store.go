// Package ratelimit provides fixed-window request rate limiting with
// pluggable backing stores. Webhook endpoints use it per client IP.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long the caller should wait before retrying.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Store counts requests per key within a fixed window. Implementations must
// be safe for concurrent use.
type Store interface {
	// Allow records one request for key and reports whether it fits within
	// limit requests per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Config holds rate limiter settings.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig returns the webhook endpoint defaults.
func DefaultConfig() Config {
	return Config{
		Limit:  50,
		Window: time.Minute,
	}
}
