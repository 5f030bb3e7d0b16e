package observe

import (
	"context"
	"time"
)

// ProbeFunc runs one probe and reports its verdict. err carries the failure
// cause, if any, and may be non-nil only when healthy is false.
type ProbeFunc func(ctx context.Context) (healthy bool, err error)

// Middleware wraps probe execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a ProbeFunc safe for concurrent use.
//   - Errors: the wrapped verdict and error are returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = Nop()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NopMiddleware returns a Middleware that only runs the probe.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Wrap instruments fn. Unhealthy verdicts are logged at error level.
func (m *Middleware) Wrap(meta ProbeMeta, fn ProbeFunc) ProbeFunc {
	return func(ctx context.Context) (bool, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		healthy, err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, healthy, err)
		m.metrics.RecordProbe(ctx, meta, duration, healthy)

		fields := []Field{
			F("component", meta.Component),
			F("duration_ms", duration.Milliseconds()),
		}
		if healthy {
			m.logger.Debug(ctx, "health probe passed", fields...)
			return healthy, err
		}
		if err != nil {
			fields = append(fields, Err(err))
		}
		m.logger.Error(ctx, "health probe failed", fields...)
		return healthy, err
	}
}

// MiddlewareFromObserver builds a Middleware from an Observer's providers.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
