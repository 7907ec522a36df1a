package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/clock"
)

// MemoryStore is an in-process fixed-window counter. It is the default when
// Redis is not configured; counts are per instance, so multi-replica
// deployments should use the Redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	clk     clock.Clock

	stop chan struct{}
	once sync.Once
}

type window struct {
	count   int
	startAt time.Time
	expiry  time.Duration
}

// NewMemoryStore creates a memory store and starts its cleanup loop.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*window),
		clk:     clock.New(),
		stop:    make(chan struct{}),
	}

	go s.cleanup()

	return s
}

// Allow implements Store.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, windowDur time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()

	w, exists := s.windows[key]
	if !exists || now.Sub(w.startAt) >= windowDur {
		s.windows[key] = &window{count: 1, startAt: now, expiry: windowDur}
		return &Result{Allowed: true, Remaining: limit - 1}, nil
	}

	w.count++
	if w.count > limit {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: windowDur - now.Sub(w.startAt),
		}, nil
	}

	return &Result{Allowed: true, Remaining: limit - w.count}, nil
}

// Close stops the cleanup loop.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// cleanup removes expired windows periodically.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.clk.Now()
			for key, w := range s.windows {
				if now.Sub(w.startAt) >= 2*w.expiry {
					delete(s.windows, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
