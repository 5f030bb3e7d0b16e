package health

import (
	"context"
	"encoding/json"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result contains the outcome of one probe run. Results are built fresh on
// every run and never shared.
type Result struct {
	// Status is the health status.
	Status Status

	// ResponseTime is how long the probe took.
	ResponseTime time.Duration

	// Details contains probe-specific diagnostics. When the probe failed
	// with a non-empty message it carries it under "error".
	Details map[string]any

	// Error is the failure cause, if any.
	Error error

	// Timestamp is when the probe started.
	Timestamp time.Time
}

// Healthy creates a healthy result.
func Healthy(details map[string]any) Result {
	if details == nil {
		details = map[string]any{}
	}
	return Result{
		Status:    StatusHealthy,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result. details["error"] is set to the
// error message only when err carries one.
func Unhealthy(err error, details map[string]any) Result {
	if details == nil {
		details = map[string]any{}
	}
	if msg := errorMessage(err); msg != "" {
		details["error"] = msg
	}
	return Result{
		Status:    StatusUnhealthy,
		Details:   details,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// WithResponseTime sets the response time on a result.
func (r Result) WithResponseTime(d time.Duration) Result {
	r.ResponseTime = d
	return r
}

// ResponseTimeMs returns the response time in whole milliseconds, never
// negative.
func (r Result) ResponseTimeMs() int64 {
	return max(r.ResponseTime.Milliseconds(), 0)
}

// Healthy reports whether the result is healthy.
func (r Result) Healthy() bool {
	return r.Status == StatusHealthy
}

type resultJSON struct {
	Status       Status         `json:"status"`
	ResponseTime int64          `json:"responseTime"`
	Details      map[string]any `json:"details"`
}

// MarshalJSON encodes the result as {status, responseTime, details}.
func (r Result) MarshalJSON() ([]byte, error) {
	details := r.Details
	if details == nil {
		details = map[string]any{}
	}
	return json.Marshal(resultJSON{
		Status:       r.Status,
		ResponseTime: r.ResponseTimeMs(),
		Details:      details,
	})
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Checker is the interface for health checks.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Check must always return a Result. Failures are reported as
//   StatusUnhealthy, never by panicking.
type Checker interface {
	// Name returns the stable dependency name, e.g. "database".
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
