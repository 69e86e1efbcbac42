// Package worker runs the background simulation ticker.
package worker

import (
	"time"

	"github.com/okian/rotorsim/pkg/logger"
)

// Option applies a configuration option to the Ticker.
type Option func(*Ticker)

// WithInterval sets the tick interval.
func WithInterval(interval time.Duration) Option {
	return func(t *Ticker) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the ticker.
func WithLogger(l logger.Logger) Option {
	return func(t *Ticker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithCrasher sets the sink notified when a tick fails.
func WithCrasher(c Crasher) Option {
	return func(t *Ticker) {
		if c != nil {
			t.crasher = c
		}
	}
}
