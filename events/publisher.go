package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jonwraymond/chatops/health"
)

// ErrNoBrokers is returned when a publisher is built without brokers.
var ErrNoBrokers = errors.New("events: no kafka brokers configured")

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Default: 5 seconds
	WriteTimeout time.Duration
}

// Publisher writes health transitions as JSON messages keyed by service.
// It implements health.TransitionPublisher.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
}

var _ health.TransitionPublisher = (*Publisher)(nil)

// NewPublisher creates a Publisher backed by a kafka.Writer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return NewPublisherWithWriter(w, cfg.WriteTimeout), nil
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{writer: w, timeout: timeout}
}

// PublishTransition writes t. The message key is the service name so one
// service's transitions stay ordered within a partition.
func (p *Publisher) PublishTransition(ctx context.Context, t health.Transition) error {
	value, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("events: encode transition: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(t.Service),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("health.transition")},
			{Key: "status", Value: []byte(t.Current)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish transition: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
