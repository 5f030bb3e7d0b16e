package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricProbeTotal    = "health.probe.total"
	MetricProbeFailures = "health.probe.failures"
	MetricProbeDuration = "health.probe.duration_ms"
	MetricCacheFailures = "cache.facade.failures"
	MetricStatusChanges = "health.status.transitions"
)

// Metrics records health and cache telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordProbe records one probe run.
	RecordProbe(ctx context.Context, meta ProbeMeta, duration time.Duration, healthy bool)

	// RecordCacheFailure counts a contained cache store failure.
	RecordCacheFailure(ctx context.Context, operation string)

	// RecordTransition counts an overall status change.
	RecordTransition(ctx context.Context, from, to string)
}

type metricsImpl struct {
	probeTotal    metric.Int64Counter
	probeFailures metric.Int64Counter
	probeDuration metric.Float64Histogram
	cacheFailures metric.Int64Counter
	transitions   metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	probeTotal, err := meter.Int64Counter(MetricProbeTotal,
		metric.WithDescription("Total number of dependency probe runs"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	probeFailures, err := meter.Int64Counter(MetricProbeFailures,
		metric.WithDescription("Number of probe runs that reported unhealthy"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	probeDuration, err := meter.Float64Histogram(MetricProbeDuration,
		metric.WithDescription("Dependency probe response time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheFailures, err := meter.Int64Counter(MetricCacheFailures,
		metric.WithDescription("Cache store failures contained by the facade"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(MetricStatusChanges,
		metric.WithDescription("Overall health status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		probeTotal:    probeTotal,
		probeFailures: probeFailures,
		probeDuration: probeDuration,
		cacheFailures: cacheFailures,
		transitions:   transitions,
	}, nil
}

func (m *metricsImpl) RecordProbe(ctx context.Context, meta ProbeMeta, duration time.Duration, healthy bool) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.probeTotal.Add(ctx, 1, opt)
	if !healthy {
		m.probeFailures.Add(ctx, 1, opt)
	}
	m.probeDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheFailure(ctx context.Context, operation string) {
	m.cacheFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.operation", operation)))
}

func (m *metricsImpl) RecordTransition(ctx context.Context, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status.from", from),
		attribute.String("status.to", to),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordProbe(context.Context, ProbeMeta, time.Duration, bool) {}
func (noopMetrics) RecordCacheFailure(context.Context, string)                  {}
func (noopMetrics) RecordTransition(context.Context, string, string)            {}
