package exporters

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewTracingExporter_UnknownName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "jaeger-thrift", Options{})
	if err == nil || !strings.Contains(err.Error(), "unknown exporter") {
		t.Fatalf("expected unknown exporter error, got %v", err)
	}
}

func TestNewTracingExporter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewTracingExporter(context.Background(), "stdout", Options{Writer: &buf})
	if err != nil {
		t.Fatalf("stdout exporter: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
	_ = exp.Shutdown(context.Background())
}

func TestNewTracingExporter_NoneIsNil(t *testing.T) {
	for _, name := range []string{"none", ""} {
		exp, err := NewTracingExporter(context.Background(), name, Options{})
		if err != nil || exp != nil {
			t.Errorf("NewTracingExporter(%q) = %v, %v; want nil, nil", name, exp, err)
		}
	}
}

func TestNewTracingExporter_OTLPRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	_, err := NewTracingExporter(context.Background(), "otlp", Options{})
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("error = %v, want ErrEndpointNotConfigured", err)
	}
}

func TestNewMetricsReader_Stdout(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "stdout", Options{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("stdout reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
	_ = reader.Shutdown(context.Background())
}

func TestNewMetricsReader_OTLPRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	_, err := NewMetricsReader(context.Background(), "otlp", Options{})
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("error = %v, want ErrEndpointNotConfigured", err)
	}
}

func TestNewMetricsReader_UnknownName(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "statsd", Options{})
	if err == nil {
		t.Fatal("expected error for unknown metrics exporter")
	}
}
