package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ProbeMeta identifies a dependency probe for telemetry purposes.
type ProbeMeta struct {
	Component string // Stable dependency name, e.g. "database" or "cache"
	Kind      string // Probe flavor, e.g. "ping" or "roundtrip" (optional)
}

// SpanName returns the deterministic span name for this probe.
// Format: health.probe.<component>
func (m ProbeMeta) SpanName() string {
	return "health.probe." + m.Component
}

func (m ProbeMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("probe.component", m.Component),
	}
	if m.Kind != "" {
		attrs = append(attrs, attribute.String("probe.kind", m.Kind))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with probe span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a probe run.
	StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the probe verdict and error.
	EndSpan(span trace.Span, healthy bool, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, healthy bool, err error) {
	span.SetAttributes(attribute.Bool("probe.healthy", healthy))
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !healthy:
		span.SetStatus(codes.Error, "unhealthy")
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a tracer that records nothing.
func NopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ bool, _ error) {
	span.End()
}
