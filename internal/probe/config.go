// Package probe polls a running simulator the way the dashboard does and
// checks the degradation invariants on live data.
package probe

import (
	"errors"
	"time"
)

// Defaults for a probe run.
const (
	DefaultBaseURL  = "http://localhost:5000"
	DefaultPolls    = 30
	DefaultInterval = time.Second
	DefaultTimeout  = 5 * time.Second

	// SessionHeader carries the probe session id on every request.
	SessionHeader = "X-Probe-Session"
)

// Sentinel error kinds for this package.
var (
	ErrUnhealthy          = errors.New("service health check failed")
	ErrUnexpectedStatus   = errors.New("unexpected HTTP status")
	ErrInvariantsViolated = errors.New("invariants violated")
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Polls    int           // Number of KPI polls
	Interval time.Duration // Delay between polls
	Timeout  time.Duration // HTTP request timeout
	Start    bool          // Send START before polling
	Fault    bool          // Send INJECT_FAULT before polling
}

// Report holds the outcome of a probe run.
type Report struct {
	Session     string
	Polls       int
	Violations  []string
	FirstHealth float64
	LastHealth  float64
	StartTime   time.Time
	Duration    time.Duration
}

// OK reports whether every check passed.
func (r *Report) OK() bool { return len(r.Violations) == 0 }
