// Package shutdown sequences graceful teardown. Registered hooks run in
// phase order so the HTTP listener drains before background work stops and
// connections close.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase orders hooks during shutdown. Hooks in the same phase run
// concurrently; phases run sequentially.
type Phase int

const (
	// PhaseDrain stops accepting traffic and lets in-flight requests finish.
	PhaseDrain Phase = iota
	// PhaseWorkers stops background goroutines.
	PhaseWorkers
	// PhaseCleanup closes connections and flushes buffers.
	PhaseCleanup
)

func (p Phase) String() string {
	switch p {
	case PhaseDrain:
		return "drain"
	case PhaseWorkers:
		return "workers"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// Config holds coordinator settings.
type Config struct {
	// Timeout bounds the whole shutdown sequence.
	Timeout time.Duration
}

// DefaultConfig returns a 30 second shutdown budget.
func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}

// Coordinator runs registered shutdown hooks phase by phase.
type Coordinator struct {
	mu      sync.Mutex
	hooks   map[Phase][]hook
	timeout time.Duration
	logger  *zap.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
	err          error
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg *Config, logger *zap.Logger) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Coordinator{
		hooks:      make(map[Phase][]hook),
		timeout:    cfg.Timeout,
		logger:     logger,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// RegisterFunc adds a named shutdown hook to a phase.
func (c *Coordinator) RegisterFunc(phase Phase, name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hooks[phase] = append(c.hooks[phase], hook{name: name, fn: fn})
	c.logger.Debug("registered shutdown hook",
		zap.String("hook", name),
		zap.String("phase", phase.String()),
	)
}

// ShutdownCh is closed when shutdown begins. Background goroutines should
// select on it.
func (c *Coordinator) ShutdownCh() <-chan struct{} {
	return c.shutdownCh
}

// Shutdown runs all hooks and blocks until they finish or the budget runs
// out. Safe to call more than once; later calls wait on the first run.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		close(c.shutdownCh)
		go c.run()
	})

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run() {
	defer close(c.done)

	// The budget is independent of the caller's context so hooks get their
	// full allowance even when the trigger context is already cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.logger.Info("starting graceful shutdown", zap.Duration("timeout", c.timeout))

	var errs []error
	for _, phase := range []Phase{PhaseDrain, PhaseWorkers, PhaseCleanup} {
		c.mu.Lock()
		hooks := c.hooks[phase]
		c.mu.Unlock()

		if len(hooks) == 0 {
			continue
		}

		c.logger.Info("shutdown phase",
			zap.String("phase", phase.String()),
			zap.Int("hooks", len(hooks)),
		)
		errs = append(errs, c.runPhase(ctx, phase, hooks)...)

		if ctx.Err() != nil {
			c.logger.Error("shutdown budget exhausted",
				zap.String("phase", phase.String()),
			)
			errs = append(errs, ctx.Err())
			break
		}
	}

	c.err = errors.Join(errs...)
	if c.err != nil {
		c.logger.Error("graceful shutdown finished with errors", zap.Error(c.err))
	} else {
		c.logger.Info("graceful shutdown complete")
	}
}

func (c *Coordinator) runPhase(ctx context.Context, phase Phase, hooks []hook) []error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(hooks))

	for _, h := range hooks {
		wg.Add(1)
		go func(h hook) {
			defer wg.Done()

			start := time.Now()
			if err := h.fn(ctx); err != nil {
				c.logger.Error("shutdown hook failed",
					zap.String("hook", h.name),
					zap.String("phase", phase.String()),
					zap.Duration("took", time.Since(start)),
					zap.Error(err),
				)
				errCh <- fmt.Errorf("%s: %w", h.name, err)
				return
			}
			c.logger.Debug("shutdown hook done",
				zap.String("hook", h.name),
				zap.Duration("took", time.Since(start)),
			)
		}(h)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}
