package worker

import "errors"

// Sentinel error kinds for this package.
var (
	ErrTickPanic = errors.New("tick panicked")
	ErrNoStepper = errors.New("ticker requires a stepper")
)
