// Package circuitbreaker guards calls to external providers. After a run of
// consecutive failures the breaker opens and calls fail fast until a probe
// succeeds, so a provider outage does not stall webhook processing.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/clock"
)

// State is the breaker's current mode.
type State int

const (
	StateClosed   State = iota // passing calls through
	StateOpen                  // failing fast
	StateHalfOpen              // probing for recovery
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the breaker rejects a call without
	// attempting it.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrProbeLimit is returned when the half-open probe budget is spent.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

// Config tunes the breaker's thresholds.
type Config struct {
	// FailureThreshold is how many consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold is how many consecutive probe successes close it.
	SuccessThreshold int
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxRequests caps concurrent probes while half-open.
	HalfOpenMaxRequests int
}

// DefaultConfig returns thresholds suitable for an outbound API dependency.
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold:    5,
		SuccessThreshold:    3,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

// CircuitBreaker tracks consecutive outcomes for one named dependency.
type CircuitBreaker struct {
	name   string
	config *Config
	clk    clock.Clock
	logger *zap.Logger

	mu            sync.RWMutex
	state         State
	failures      int
	successes     int
	probes        int
	lastFailureAt time.Time
	lastError     error

	totalCalls    int64
	totalFailures int64
	totalRejected int64
}

// New creates a breaker for the named dependency.
func New(name string, config *Config, logger *zap.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		clk:    clock.New(),
		state:  StateClosed,
		logger: logger,
	}
}

// Execute runs fn unless the circuit is open. The fn error is returned
// unchanged; rejections return ErrCircuitOpen or ErrProbeLimit.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++

	switch cb.state {
	case StateOpen:
		if cb.clk.Since(cb.lastFailureAt) < cb.config.OpenTimeout {
			cb.totalRejected++
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probes = 1
		cb.logger.Info("circuit breaker probing",
			zap.String("name", cb.name),
		)
		return nil

	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxRequests {
			cb.totalRejected++
			return ErrProbeLimit
		}
		cb.probes++
	}

	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.successes++
		cb.failures = 0
		if cb.state == StateHalfOpen && cb.successes >= cb.config.SuccessThreshold {
			cb.transition(StateClosed)
			cb.logger.Info("circuit breaker closed",
				zap.String("name", cb.name),
			)
		}
		return
	}

	// Client-side cancellation says nothing about the dependency's health.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	cb.totalFailures++
	cb.failures++
	cb.successes = 0
	cb.lastFailureAt = cb.clk.Now()
	cb.lastError = err

	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.transition(StateOpen)
		cb.logger.Warn("circuit breaker opened",
			zap.String("name", cb.name),
			zap.Int("consecutive_failures", cb.failures),
			zap.Error(err),
		)
	}
}

func (cb *CircuitBreaker) transition(next State) {
	cb.state = next
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// IsOpen reports whether calls are currently rejected outright.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state == StateOpen
}

// Stats is a point-in-time snapshot for diagnostics.
type Stats struct {
	Name          string    `json:"name"`
	State         string    `json:"state"`
	TotalCalls    int64     `json:"total_calls"`
	TotalFailures int64     `json:"total_failures"`
	TotalRejected int64     `json:"total_rejected"`
	LastFailureAt time.Time `json:"last_failure_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Stats returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	var lastError string
	if cb.lastError != nil {
		lastError = cb.lastError.Error()
	}

	return Stats{
		Name:          cb.name,
		State:         cb.state.String(),
		TotalCalls:    cb.totalCalls,
		TotalFailures: cb.totalFailures,
		TotalRejected: cb.totalRejected,
		LastFailureAt: cb.lastFailureAt,
		LastError:     lastError,
	}
}
