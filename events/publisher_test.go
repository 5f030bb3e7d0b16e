package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/chatops/health"
)

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewPublisher_NoBrokers(t *testing.T) {
	_, err := NewPublisher(Config{Topic: "chatops.health"})
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestNewPublisher_BuildsWriter(t *testing.T) {
	p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "chatops.health"})
	require.NoError(t, err)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "chatops.health", w.Topic)
	assert.Equal(t, 5*time.Second, p.timeout)
}

func TestPublishTransition(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, time.Second)

	tr := health.Transition{
		Service:   "chatops",
		Previous:  "healthy",
		Current:   "unhealthy",
		Timestamp: "2026-03-01T12:00:00.123Z",
		Services: map[string]health.Result{
			"database": health.Unhealthy(errors.New("connection refused"), nil),
		},
	}
	require.NoError(t, p.PublishTransition(context.Background(), tr))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.True(t, w.deadline, "publish should carry a deadline")
	assert.Equal(t, "chatops", string(msg.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "unhealthy", decoded["current"])
	assert.Equal(t, "healthy", decoded["previous"])
	services := decoded["services"].(map[string]any)
	db := services["database"].(map[string]any)
	assert.Equal(t, "unhealthy", db["status"])

	var status string
	for _, h := range msg.Headers {
		if h.Key == "status" {
			status = string(h.Value)
		}
	}
	assert.Equal(t, "unhealthy", status)
}

func TestPublishTransition_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := NewPublisherWithWriter(&fakeWriter{err: boom}, 0)

	err := p.PublishTransition(context.Background(), health.Transition{Service: "chatops"})
	assert.ErrorIs(t, err, boom)
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewPublisherWithWriter(w, 0).Close())
	assert.True(t, w.closed)
}
