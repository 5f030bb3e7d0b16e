package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation does not finish before its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrMaxRetriesExceeded wraps the last error once every attempt has failed.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
)
