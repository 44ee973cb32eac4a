// Package notify publishes committed domain events to a message broker.
//
// Events are JSON-encoded and sent to one channel (a RabbitMQ queue or a
// Pub/Sub topic) with the event type as an attribute, so consumers can
// filter without decoding the body.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/roach88/shelfswap/internal/config"
	"github.com/roach88/shelfswap/internal/domain"
)

// Backend defines the broker-agnostic publish operation.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Notifier encodes domain events and publishes them through a Backend.
// Implements engine.Publisher.
type Notifier struct {
	backend Backend
	channel string
}

// New wraps backend, publishing to channel.
func New(backend Backend, channel string) *Notifier {
	return &Notifier{backend: backend, channel: channel}
}

// Publish sends ev to the configured channel.
func (n *Notifier) Publish(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"type":           string(ev.Type),
		"engine_version": domain.EngineVersion,
	}
	if _, err := n.backend.Publish(ctx, n.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the underlying backend.
func (n *Notifier) Close() error {
	return n.backend.Close()
}

// Open builds the Notifier selected by cfg. It returns nil for the "none"
// backend; callers skip publishing in that case.
func Open(ctx context.Context, cfg config.NotifyConfig) (*Notifier, error) {
	switch cfg.Backend {
	case "", config.NotifyNone:
		return nil, nil

	case config.NotifyRabbitMQ:
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return New(backend, cfg.Channel), nil

	case config.NotifyPubSub:
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return New(backend, cfg.Channel), nil

	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Backend)
	}
}

// Message is one published payload, as captured by Recorder.
type Message struct {
	Channel    string
	Data       []byte
	Attributes map[string]string
}

// Recorder is an in-memory Backend that keeps everything published.
// The scenario harness uses it to assert on notifications.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Publish records the message and returns its 1-based position as id.
func (r *Recorder) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Channel: channel, Data: data, Attributes: attrs})
	return fmt.Sprintf("%d", len(r.messages)), nil
}

// Close is a no-op.
func (r *Recorder) Close() error {
	return nil
}

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Events decodes every recorded message body.
func (r *Recorder) Events() ([]domain.Event, error) {
	msgs := r.Messages()
	out := make([]domain.Event, 0, len(msgs))
	for _, m := range msgs {
		var ev domain.Event
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
