// Package observe provides the logging, tracing and metrics primitives used
// across the service.
//
// Logger is a small structured logging interface backed by log/slog: JSON in
// deployed environments and a colored, human-readable handler for local runs.
// Keys that may carry credentials (password, token, dsn, ...) are redacted.
//
// Tracing and metrics are OpenTelemetry based. Observer owns the providers
// and their exporters; Middleware wraps a health probe with a span, the
// health.probe.* instruments and a log line.
package observe
