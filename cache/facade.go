package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/chatops/observe"
)

// ErrStorePanic wraps a panic raised inside a KeyValueStore call.
var ErrStorePanic = errors.New("cache: store panicked")

// Operation names used in logs and the failure metric.
const (
	OpSet    = "set"
	OpGet    = "get"
	OpDelete = "delete"
	OpHas    = "has"
	OpClear  = "clear"
)

// FacadeConfig configures a Facade.
type FacadeConfig struct {
	// Policy controls TTL defaulting and clamping. Default: DefaultPolicy()
	Policy Policy

	// Logger receives contained failures. Default: no-op
	Logger observe.Logger

	// Metrics counts contained failures. Default: no-op
	Metrics observe.Metrics
}

// Facade wraps a KeyValueStore so that Set, Get, Delete and Has never
// surface a failure. Every failure is logged at error level, counted and
// replaced by a fallback: nothing for Set, nil for Get, false for Delete
// and Has. Clear logs and returns the failure.
//
// The Try* methods run the same store calls but return the raw error. They
// are for callers, like the cache health probe, that must observe failures.
type Facade struct {
	store   KeyValueStore
	policy  Policy
	logger  observe.Logger
	metrics observe.Metrics
}

// NewFacade creates a Facade over store.
func NewFacade(store KeyValueStore, config ...FacadeConfig) (*Facade, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	cfg := FacadeConfig{Policy: DefaultPolicy()}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Policy.DefaultTTL <= 0 {
			cfg.Policy.DefaultTTL = DefaultTTL
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}

	return &Facade{
		store:   store,
		policy:  cfg.Policy,
		logger:  cfg.Logger.With(observe.F("component", "cache")),
		metrics: cfg.Metrics,
	}, nil
}

// Policy returns the facade TTL policy.
func (f *Facade) Policy() Policy {
	return f.policy
}

// Set stores value under key. ttl <= 0 uses the policy default.
func (f *Facade) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	contain(ctx, f, OpSet, key, struct{}{}, func() (struct{}, error) {
		return struct{}{}, f.TrySet(ctx, key, value, ttl)
	})
}

// Get returns the stored value, or nil when the key is absent or the read
// failed. Zero values that were stored are returned unchanged.
func (f *Facade) Get(ctx context.Context, key string) any {
	return contain[any](ctx, f, OpGet, key, nil, func() (any, error) {
		return f.TryGet(ctx, key)
	})
}

// Delete removes key. It reports false only when the store failed; deleting
// an absent key is a success.
func (f *Facade) Delete(ctx context.Context, key string) bool {
	return contain(ctx, f, OpDelete, key, false, func() (bool, error) {
		return true, f.TryDelete(ctx, key)
	})
}

// Has reports whether key holds a non-nil value. Read failures report false.
func (f *Facade) Has(ctx context.Context, key string) bool {
	return contain(ctx, f, OpHas, key, false, func() (bool, error) {
		return f.TryHas(ctx, key)
	})
}

// Clear removes every entry. Unlike the other operations, a failure is
// returned after being logged.
func (f *Facade) Clear(ctx context.Context) error {
	_, err := guard(func() (struct{}, error) {
		return struct{}{}, f.store.Reset(ctx)
	})
	if err != nil {
		f.fail(ctx, OpClear, "", err)
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}

// TrySet is Set with the failure returned.
func (f *Facade) TrySet(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := guard(func() (struct{}, error) {
		return struct{}{}, f.store.Set(ctx, key, value, f.policy.EffectiveTTL(ttl))
	})
	return err
}

// TryGet is Get with the failure returned.
func (f *Facade) TryGet(ctx context.Context, key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return guard(func() (any, error) {
		value, ok, err := f.store.Get(ctx, key)
		if err != nil || !ok {
			return nil, err
		}
		return value, nil
	})
}

// TryHas is Has with the failure returned.
func (f *Facade) TryHas(ctx context.Context, key string) (bool, error) {
	value, err := f.TryGet(ctx, key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// TryDelete is Delete with the failure returned.
func (f *Facade) TryDelete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := guard(func() (struct{}, error) {
		return struct{}{}, f.store.Delete(ctx, key)
	})
	return err
}

// contain runs call and converts a failure into fallback.
func contain[T any](ctx context.Context, f *Facade, op, key string, fallback T, call func() (T, error)) T {
	value, err := call()
	if err != nil {
		f.fail(ctx, op, key, err)
		return fallback
	}
	return value
}

// guard turns a panic inside call into ErrStorePanic.
func guard[T any](call func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, fmt.Errorf("%w: %v", ErrStorePanic, r)
		}
	}()
	return call()
}

func (f *Facade) fail(ctx context.Context, op, key string, err error) {
	fields := []observe.Field{observe.F("operation", op), observe.Err(err)}
	if key != "" {
		fields = append(fields, observe.F("key", key))
	}
	f.logger.Error(ctx, "cache operation failed", fields...)
	f.metrics.RecordCacheFailure(ctx, op)
}
