package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/chatops/observe"
)

// DefaultMonitorInterval is the re-evaluation period when none is set.
const DefaultMonitorInterval = 15 * time.Second

// StatusUnknown is the previous status of the first evaluation.
const StatusUnknown = "unknown"

// Transition describes an overall status change.
type Transition struct {
	Service   string            `json:"service"`
	Previous  string            `json:"previous"`
	Current   string            `json:"current"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]Result `json:"services"`
}

// TransitionPublisher delivers transitions to an external system.
type TransitionPublisher interface {
	PublishTransition(ctx context.Context, t Transition) error
}

// StatusSink mirrors the current overall status, e.g. into a gRPC health
// server.
type StatusSink interface {
	SetHealthy(healthy bool)
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Service names the process in published transitions.
	Service string

	// Interval between evaluations. Default: 15 seconds
	Interval time.Duration

	// Publisher receives transitions. Optional.
	Publisher TransitionPublisher

	// Sinks are updated on every transition. Optional.
	Sinks []StatusSink

	// Logger logs transitions. Default: no-op
	Logger observe.Logger

	// Metrics counts transitions. Default: no-op
	Metrics observe.Metrics
}

// Monitor re-evaluates overall health in the background and reacts only to
// status transitions. The first evaluation establishes the baseline and is
// treated as a transition from "unknown".
type Monitor struct {
	agg    *Aggregator
	config MonitorConfig

	mu   sync.Mutex
	last *Status
}

// NewMonitor creates a monitor over agg.
func NewMonitor(agg *Aggregator, config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = DefaultMonitorInterval
	}
	if config.Logger == nil {
		config.Logger = observe.Nop()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NopMetrics()
	}
	return &Monitor{agg: agg, config: config}
}

// Run evaluates immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.Evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Evaluate(ctx)
		}
	}
}

// Evaluate runs one aggregation. It reports the transition and true when the
// overall status changed since the previous evaluation. An evaluation cut
// short by ctx is discarded.
func (m *Monitor) Evaluate(ctx context.Context) (Transition, bool) {
	overall := m.agg.GetOverallHealth(ctx)
	if ctx.Err() != nil {
		return Transition{}, false
	}

	m.mu.Lock()
	previous := StatusUnknown
	if m.last != nil {
		if *m.last == overall.Status {
			m.mu.Unlock()
			return Transition{}, false
		}
		previous = m.last.String()
	}
	status := overall.Status
	m.last = &status
	m.mu.Unlock()

	t := Transition{
		Service:   m.config.Service,
		Previous:  previous,
		Current:   overall.Status.String(),
		Timestamp: overall.Timestamp,
		Services:  overall.Services,
	}
	m.react(ctx, t, overall.Healthy())
	return t, true
}

// Status returns the last evaluated status. ok is false before the first
// evaluation.
func (m *Monitor) Status() (status Status, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return StatusUnhealthy, false
	}
	return *m.last, true
}

func (m *Monitor) react(ctx context.Context, t Transition, healthy bool) {
	for _, sink := range m.config.Sinks {
		sink.SetHealthy(healthy)
	}
	m.config.Metrics.RecordTransition(ctx, t.Previous, t.Current)

	fields := []observe.Field{
		observe.F("previous", t.Previous),
		observe.F("current", t.Current),
	}
	if healthy {
		m.config.Logger.Info(ctx, "health status changed", fields...)
	} else {
		m.config.Logger.Warn(ctx, "health status changed", fields...)
	}

	if m.config.Publisher == nil {
		return
	}
	if err := m.config.Publisher.PublishTransition(ctx, t); err != nil {
		m.config.Logger.Error(ctx, "health transition publish failed", append(fields, observe.Err(err))...)
	}
}
