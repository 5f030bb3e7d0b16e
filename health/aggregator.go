package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/chatops/observe"
	"github.com/jonwraymond/chatops/resilience"
)

// TimestampLayout is the ISO-8601 layout, millisecond precision, used for
// every timestamp the health endpoints emit. Values are formatted in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp formats t with TimestampLayout in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// ProbeTimeout bounds each probe run.
	// Default: 3 seconds
	ProbeTimeout time.Duration

	// Timeout bounds a whole CheckAll call.
	// Default: 10 seconds
	Timeout time.Duration

	// Middleware instruments every probe run. Default: no-op
	Middleware *observe.Middleware
}

// OverallHealth is the combined verdict of every registered probe plus
// process metadata. Status is healthy iff every service is healthy.
type OverallHealth struct {
	Status    Status            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    float64           `json:"uptime"`
	Memory    MemoryUsage       `json:"memory"`
	Services  map[string]Result `json:"services"`
}

// Healthy reports whether the overall status is healthy.
func (h OverallHealth) Healthy() bool {
	return h.Status == StatusHealthy
}

// Aggregator runs registered checkers concurrently and folds their results.
// Each run is independent: no result state is shared between calls.
type Aggregator struct {
	config   AggregatorConfig
	timeout  *resilience.Timeout
	mw       *observe.Middleware
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // Maintains registration order

	now    func() time.Time
	uptime func() time.Duration
	memory func() MemoryUsage
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = resilience.DefaultTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}

	return &Aggregator{
		config:   cfg,
		timeout:  resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.ProbeTimeout}),
		mw:       cfg.Middleware,
		checkers: make(map[string]Checker),
		order:    make([]string, 0),
		now:      time.Now,
		uptime:   Uptime,
		memory:   ReadMemoryUsage,
	}
}

// Register adds a health checker to the aggregator. Registering an existing
// name replaces its checker.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes a health checker from the aggregator.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns the names of all registered checkers.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrCheckerNotFound, name)
	}

	return a.runCheck(ctx, name, checker), nil
}

// CheckAll runs all registered checkers concurrently. Every registered name
// is present in the result, whatever its checker did.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		checkers[name] = checker
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	if len(checkers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for name, checker := range checkers {
		g.Go(func() error {
			result := a.runCheck(ctx, name, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// OverallStatus folds results: healthy only if every result is healthy.
// An empty set is healthy.
func OverallStatus(results map[string]Result) Status {
	for _, result := range results {
		if result.Status != StatusHealthy {
			return StatusUnhealthy
		}
	}
	return StatusHealthy
}

// OverallStatus computes the overall health status from a set of results.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	return OverallStatus(results)
}

// GetOverallHealth runs every probe once and attaches the timestamp, uptime
// and memory snapshot.
func (a *Aggregator) GetOverallHealth(ctx context.Context) OverallHealth {
	services := a.CheckAll(ctx)
	return OverallHealth{
		Status:    OverallStatus(services),
		Timestamp: FormatTimestamp(a.now()),
		Uptime:    a.uptime().Seconds(),
		Memory:    a.memory(),
		Services:  services,
	}
}

// runCheck bounds, guards and instruments one checker run.
func (a *Aggregator) runCheck(ctx context.Context, name string, checker Checker) Result {
	var result Result

	probe := a.mw.Wrap(observe.ProbeMeta{Component: name}, func(ctx context.Context) (bool, error) {
		start := time.Now()
		r, err := resilience.Call(ctx, a.timeout, func(ctx context.Context) Result {
			return safeCheck(ctx, checker)
		})
		elapsed := time.Since(start)
		switch {
		case errors.Is(err, resilience.ErrTimeout):
			r = Unhealthy(fmt.Errorf("%w after %s: %w", ErrCheckTimeout, a.timeout.Duration(), err), nil)
			r.Timestamp = start
		case err != nil:
			r = Unhealthy(fmt.Errorf("%w: %w", ErrCheckCanceled, err), nil)
			r.Timestamp = start
		}
		if r.ResponseTime <= 0 {
			r.ResponseTime = elapsed
		}
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		if r.Details == nil {
			r.Details = map[string]any{}
		}
		result = r
		return r.Status == StatusHealthy, r.Error
	})
	_, _ = probe(ctx)

	return result
}

// safeCheck converts a checker panic into an unhealthy result.
func safeCheck(ctx context.Context, checker Checker) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Unhealthy(fmt.Errorf("%w: %v", ErrProbePanic, r), nil)
		}
	}()
	return checker.Check(ctx)
}
