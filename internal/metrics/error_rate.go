package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/clock"
)

// Category classifies errors for windowed rate tracking.
type Category string

const (
	CategoryHTTP         Category = "http"
	CategoryDatabase     Category = "database"
	CategoryWebhook      Category = "webhook"
	CategoryNotification Category = "notification"
)

// RateTrackerConfig configures the error rate tracker.
type RateTrackerConfig struct {
	// Window is the span over which rates are computed.
	Window time.Duration

	// Buckets subdivides the window. More buckets means the window slides
	// more smoothly at the cost of a larger ring.
	Buckets int

	// AlertThreshold is an errors-per-second rate above which OnAlert fires.
	AlertThreshold float64

	// OnAlert is invoked when a category's rate crosses the threshold.
	OnAlert func(category Category, perSecond float64)
}

// DefaultRateTrackerConfig returns a one-minute window with per-second buckets.
func DefaultRateTrackerConfig() RateTrackerConfig {
	return RateTrackerConfig{
		Window:         time.Minute,
		Buckets:        60,
		AlertThreshold: 10,
	}
}

// RateTracker maintains sliding-window error counts per category alongside
// aggregate request and error totals.
type RateTracker struct {
	cfg RateTrackerConfig
	clk clock.Clock

	mu      sync.RWMutex
	windows map[Category]*ringWindow

	requests atomic.Int64
	errors   atomic.Int64
}

// NewRateTracker creates a tracker. Zero config fields fall back to defaults.
func NewRateTracker(cfg RateTrackerConfig) *RateTracker {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = 60
	}
	return &RateTracker{
		cfg:     cfg,
		clk:     clock.New(),
		windows: make(map[Category]*ringWindow),
	}
}

// RecordRequest counts a request toward the error ratio denominator.
func (t *RateTracker) RecordRequest() {
	t.requests.Add(1)
}

// RecordError counts an error in the category's current window and fires the
// alert callback when the category rate crosses the configured threshold.
func (t *RateTracker) RecordError(category Category) {
	t.errors.Add(1)
	t.window(category).add()

	if t.cfg.OnAlert != nil {
		if rate := t.ErrorRate(category); rate > t.cfg.AlertThreshold {
			t.cfg.OnAlert(category, rate)
		}
	}
}

// ErrorRate returns the category's errors per second over the window.
func (t *RateTracker) ErrorRate(category Category) float64 {
	t.mu.RLock()
	w, ok := t.windows[category]
	t.mu.RUnlock()
	if !ok {
		return 0
	}
	return float64(w.total()) / t.cfg.Window.Seconds()
}

// ErrorCount returns the category's error count in the current window.
func (t *RateTracker) ErrorCount(category Category) int64 {
	t.mu.RLock()
	w, ok := t.windows[category]
	t.mu.RUnlock()
	if !ok {
		return 0
	}
	return w.total()
}

// ErrorRatio returns the lifetime fraction of requests that errored, in
// [0, 1]. Zero when no requests have been recorded.
func (t *RateTracker) ErrorRatio() float64 {
	requests := t.requests.Load()
	if requests == 0 {
		return 0
	}
	return float64(t.errors.Load()) / float64(requests)
}

// CategoryStats is a point-in-time view of one category.
type CategoryStats struct {
	Count     int64
	PerSecond float64
}

// Snapshot reports current window counts and rates for every category that
// has recorded at least one error.
func (t *RateTracker) Snapshot() map[Category]CategoryStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[Category]CategoryStats, len(t.windows))
	for category, w := range t.windows {
		count := w.total()
		out[category] = CategoryStats{
			Count:     count,
			PerSecond: float64(count) / t.cfg.Window.Seconds(),
		}
	}
	return out
}

func (t *RateTracker) window(category Category) *ringWindow {
	t.mu.RLock()
	w, ok := t.windows[category]
	t.mu.RUnlock()
	if ok {
		return w
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok = t.windows[category]; ok {
		return w
	}
	w = newRingWindow(t.clk, t.cfg.Window, t.cfg.Buckets)
	t.windows[category] = w
	return w
}

// ringWindow counts events in a ring of time buckets. Expired buckets are
// zeroed lazily on the next add or total call.
type ringWindow struct {
	clk clock.Clock

	mu        sync.Mutex
	buckets   []int64
	bucketDur time.Duration
	head      int
	advanced  time.Time
}

func newRingWindow(clk clock.Clock, window time.Duration, buckets int) *ringWindow {
	return &ringWindow{
		clk:       clk,
		buckets:   make([]int64, buckets),
		bucketDur: window / time.Duration(buckets),
		advanced:  clk.Now(),
	}
}

func (w *ringWindow) add() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.advance()
	w.buckets[w.head]++
}

func (w *ringWindow) total() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.advance()

	var sum int64
	for _, n := range w.buckets {
		sum += n
	}
	return sum
}

func (w *ringWindow) advance() {
	now := w.clk.Now()
	steps := int(now.Sub(w.advanced) / w.bucketDur)
	if steps == 0 {
		return
	}
	if steps > len(w.buckets) {
		steps = len(w.buckets)
	}
	for i := 0; i < steps; i++ {
		w.head = (w.head + 1) % len(w.buckets)
		w.buckets[w.head] = 0
	}
	w.advanced = now
}
