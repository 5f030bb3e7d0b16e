package health

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/chatops/observe"
)

type recordingPublisher struct {
	mu          sync.Mutex
	transitions []Transition
	err         error
}

func (p *recordingPublisher) PublishTransition(_ context.Context, t Transition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, t)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transitions)
}

type recordingSink struct {
	mu     sync.Mutex
	values []bool
}

func (s *recordingSink) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, healthy)
}

type switchChecker struct {
	mu     sync.Mutex
	status Status
}

func (c *switchChecker) set(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *switchChecker) Name() string { return "database" }

func (c *switchChecker) Check(context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusHealthy {
		return Healthy(nil)
	}
	return Unhealthy(errors.New("down"), nil)
}

func TestMonitor_PublishesOnlyTransitions(t *testing.T) {
	checker := &switchChecker{status: StatusHealthy}
	agg := NewAggregator()
	agg.Register("database", checker)

	pub := &recordingPublisher{}
	sink := &recordingSink{}
	m := NewMonitor(agg, MonitorConfig{Service: "chatops", Publisher: pub, Sinks: []StatusSink{sink}})
	ctx := context.Background()

	if _, ok := m.Status(); ok {
		t.Error("Status() before first evaluation should report ok=false")
	}

	tr, changed := m.Evaluate(ctx)
	if !changed || tr.Previous != StatusUnknown || tr.Current != "healthy" || tr.Service != "chatops" {
		t.Errorf("baseline = %+v, %v", tr, changed)
	}
	if _, changed := m.Evaluate(ctx); changed {
		t.Error("unchanged status must not be a transition")
	}

	checker.set(StatusUnhealthy)
	tr, changed = m.Evaluate(ctx)
	if !changed || tr.Previous != "healthy" || tr.Current != "unhealthy" {
		t.Errorf("transition = %+v, %v", tr, changed)
	}
	if _, ok := tr.Services["database"]; !ok {
		t.Error("transition should carry services")
	}
	m.Evaluate(ctx)

	if pub.count() != 2 {
		t.Errorf("published %d transitions, want 2", pub.count())
	}
	if len(sink.values) != 2 || !sink.values[0] || sink.values[1] {
		t.Errorf("sink values = %v, want [true false]", sink.values)
	}
	if s, ok := m.Status(); !ok || s != StatusUnhealthy {
		t.Errorf("Status() = %v, %v; want unhealthy, true", s, ok)
	}
}

func TestMonitor_CanceledEvaluationIsDiscarded(t *testing.T) {
	agg := NewAggregator()
	agg.Register("database", &switchChecker{status: StatusHealthy})

	pub := &recordingPublisher{}
	sink := &recordingSink{}
	m := NewMonitor(agg, MonitorConfig{Service: "chatops", Publisher: pub, Sinks: []StatusSink{sink}})

	if _, changed := m.Evaluate(context.Background()); !changed {
		t.Fatal("baseline evaluation should be a transition")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if tr, changed := m.Evaluate(ctx); changed {
		t.Errorf("canceled evaluation reported transition %+v", tr)
	}

	if pub.count() != 1 {
		t.Errorf("published %d transitions, want only the baseline", pub.count())
	}
	if len(sink.values) != 1 || !sink.values[0] {
		t.Errorf("sink values = %v, want [true]", sink.values)
	}
	if s, ok := m.Status(); !ok || s != StatusHealthy {
		t.Errorf("Status() = %v, %v; want healthy, true", s, ok)
	}
}

func TestMonitor_PublishFailureIsLogged(t *testing.T) {
	agg := NewAggregator()
	agg.Register("database", &switchChecker{status: StatusHealthy})

	var logs bytes.Buffer
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	m := NewMonitor(agg, MonitorConfig{
		Publisher: pub,
		Logger:    observe.NewLoggerWithWriter("info", "json", &logs),
	})

	m.Evaluate(context.Background())
	if !strings.Contains(logs.String(), "broker unavailable") {
		t.Errorf("expected publish failure in logs, got %s", logs.String())
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	agg := NewAggregator()
	agg.Register("database", &switchChecker{status: StatusHealthy})
	pub := &recordingPublisher{}
	m := NewMonitor(agg, MonitorConfig{Interval: 5 * time.Millisecond, Publisher: pub})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if pub.count() != 1 {
		t.Errorf("published %d, want only the baseline", pub.count())
	}
}
