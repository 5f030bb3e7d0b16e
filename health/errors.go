package health

import "errors"

var (
	// ErrCheckTimeout indicates a probe did not finish within its bound.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckCanceled indicates the caller gave up before a probe finished.
	ErrCheckCanceled = errors.New("health: check canceled")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrProbePanic indicates a checker panicked instead of returning.
	ErrProbePanic = errors.New("health: probe panicked")

	// ErrCacheMismatch indicates the cache round-trip read back a different
	// value or reported the key absent.
	ErrCacheMismatch = errors.New("health: cache round-trip mismatch")
)
