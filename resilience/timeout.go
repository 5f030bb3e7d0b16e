package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is used when TimeoutConfig.Timeout is not positive.
const DefaultTimeout = 3 * time.Second

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 3 seconds
	Timeout time.Duration
}

// Timeout bounds operations by a fixed deadline.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Timeout{config: config}
}

// Duration returns the configured deadline.
func (t *Timeout) Duration() time.Duration {
	return t.config.Timeout
}

// Execute runs op with a timeout. It returns ErrTimeout when the deadline
// fires first; op keeps running in the background until it observes ctx.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	opErr, err := Call(ctx, t, op)
	if err != nil {
		return err
	}
	return opErr
}

// Call runs op under t's deadline and returns its value. The returned error
// is ErrTimeout when the deadline fired, the parent context's error when the
// caller gave up, and nil when op returned in time.
func Call[T any](ctx context.Context, t *Timeout, op func(context.Context) T) (T, error) {
	if t == nil {
		t = NewTimeout(TimeoutConfig{})
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan T, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
