// Package worker runs the background simulation ticker.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/rotorsim/pkg/logger"
	"github.com/okian/rotorsim/pkg/metrics"
)

// Default ticker configuration constants.
const (
	defaultInterval = time.Second
)

// Stepper advances the simulation by one tick.
type Stepper interface {
	Step(ctx context.Context) error
}

// StepperFunc adapts a function to Stepper.
type StepperFunc func(ctx context.Context) error

// Step calls f(ctx).
func (f StepperFunc) Step(ctx context.Context) error { return f(ctx) }

// Crasher is told when a tick fails so it can force a safe state.
type Crasher interface {
	Crash(ctx context.Context, reason string)
}

// Ticker invokes a Stepper once per interval until stopped. A failing or
// panicking tick is reported to the Crasher and never ends the loop.
type Ticker struct {
	stepper  Stepper
	crasher  Crasher
	interval time.Duration

	shutdown     chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewTicker creates a ticker for stepper.
func NewTicker(stepper Stepper, opts ...Option) (*Ticker, error) {
	if stepper == nil {
		return nil, ErrNoStepper
	}

	t := &Ticker{
		stepper:  stepper,
		interval: defaultInterval,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("ticker"),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Interval returns the configured tick interval.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Run drives the tick loop until ctx is cancelled or Shutdown is called.
func (t *Ticker) Run(ctx context.Context) {
	defer close(t.done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	t.logger.Info(ctx, "ticker started", logger.Duration("interval", t.interval))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info(ctx, "ticker stopped", logger.String("reason", "context done"))
			return
		case <-t.shutdown:
			t.logger.Info(ctx, "ticker stopped", logger.String("reason", "shutdown"))
			return
		case <-tk.C:
			t.Tick(ctx)
		}
	}
}

// Tick runs a single iteration with crash isolation and reports whether
// it succeeded.
func (t *Ticker) Tick(ctx context.Context) bool {
	start := time.Now()
	err := t.safeStep(ctx)
	metrics.RecordTickDuration(float64(time.Since(start).Microseconds()) / 1000)

	if err == nil {
		return true
	}

	metrics.RecordTickCrash()
	t.logger.Error(ctx, "simulation tick failed; forcing stop", logger.Error(err))
	if t.crasher != nil {
		t.crasher.Crash(ctx, err.Error())
	}
	return false
}

func (t *Ticker) safeStep(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTickPanic, rec)
		}
	}()
	return t.stepper.Step(ctx)
}

// Shutdown stops the loop and waits for it to exit or ctx to expire.
func (t *Ticker) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() { close(t.shutdown) })

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		t.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
