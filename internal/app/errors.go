package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrNotStarted     = errors.New("service not started")
	ErrMaintenance    = errors.New("maintenance failed")
	ErrNonFinite      = errors.New("non-finite telemetry")
)
