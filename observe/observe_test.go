package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func validConfig() Config {
	return Config{
		ServiceName: "chatops",
		Version:     "1.0.0",
		Environment: "test",
		Logging:     LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"bad tracing exporter", func(c *Config) {
			c.Tracing = TracingConfig{Enabled: true, Exporter: "zipkin", SamplePct: 1}
		}, ErrInvalidTracingExporter},
		{"sample pct too high", func(c *Config) {
			c.Tracing = TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.5}
		}, ErrInvalidSamplePct},
		{"bad exporter ignored when disabled", func(c *Config) {
			c.Tracing = TracingConfig{Enabled: false, Exporter: "zipkin"}
		}, nil},
		{"bad metrics exporter", func(c *Config) {
			c.Metrics = MetricsConfig{Enabled: true, Exporter: "statsd"}
		}, ErrInvalidMetricsExporter},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), validConfig(), Nop())
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("expected non-nil telemetry primitives")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestNewObserver_StdoutExporters(t *testing.T) {
	var out bytes.Buffer
	cfg := validConfig()
	cfg.Output = &out
	cfg.Tracing = TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1}
	cfg.Metrics = MetricsConfig{Enabled: true, Exporter: "stdout"}

	obs, err := NewObserver(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver: %v", err)
	}
	probe := mw.Wrap(ProbeMeta{Component: "cache"}, func(context.Context) (bool, error) { return true, nil })
	if healthy, _ := probe(context.Background()); !healthy {
		t.Error("expected healthy probe")
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected stdout exporters to flush on shutdown")
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ServiceName = ""
	if _, err := NewObserver(context.Background(), cfg, nil); !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("err = %v, want ErrMissingServiceName", err)
	}
}
