// Package degradation implements the machine degradation model.
package degradation

import (
	"math/rand/v2"
	"time"
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithSource sets the random source used for sensor noise.
func WithSource(src Source) Option {
	return func(m *Model) {
		if src != nil {
			m.rng = src
		}
	}
}

// WithSeed seeds the default PCG source. A zero seed keeps the
// time-based default.
func WithSeed(seed uint64) Option {
	return func(m *Model) {
		if seed != 0 {
			m.rng = rand.New(rand.NewPCG(seed, seed^pcgStream)) //nolint:gosec // simulation noise, not crypto
		}
	}
}

// WithClock sets the clock used to timestamp fault log entries.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
