package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelfswap/internal/config"
	"github.com/roach88/shelfswap/internal/domain"
)

func TestNotifier_PublishEncodesEvent(t *testing.T) {
	rec := &Recorder{}
	n := New(rec, "shelfswap.events")

	ev := domain.Event{
		Type:      domain.EventRequestAccepted,
		ActorID:   "u1",
		BookID:    "b1",
		MessageID: "m1",
		TargetID:  "u2",
		At:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.Publish(context.Background(), ev))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "shelfswap.events", msgs[0].Channel)
	assert.Equal(t, "request.accepted", msgs[0].Attributes["type"])
	assert.JSONEq(t, `{
		"type": "request.accepted",
		"actorId": "u1",
		"bookId": "b1",
		"messageId": "m1",
		"targetId": "u2",
		"at": "2024-01-01T09:00:00Z"
	}`, string(msgs[0].Data))

	events, err := rec.Events()
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{ev}, events)
}

type failingBackend struct{}

func (failingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return "", errors.New("broker down")
}

func (failingBackend) Close() error { return nil }

func TestNotifier_PublishError(t *testing.T) {
	n := New(failingBackend{}, "events")

	err := n.Publish(context.Background(), domain.Event{Type: domain.EventMessageSent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish message.sent")
	assert.Contains(t, err.Error(), "broker down")
}

func TestOpen_None(t *testing.T) {
	n, err := Open(context.Background(), config.NotifyConfig{Backend: config.NotifyNone})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.NotifyConfig{Backend: "smoke-signals"})
	require.Error(t, err)
}

func TestNewRabbitMQClient_RequiresURL(t *testing.T) {
	_, err := NewRabbitMQClient(config.RabbitMQConfig{})
	assert.EqualError(t, err, "rabbitmq url is required")
}

func TestNewPubSubClient_RequiresProject(t *testing.T) {
	_, err := NewPubSubClient(context.Background(), config.PubSubConfig{})
	assert.EqualError(t, err, "pubsub project id is required")
}

func TestDeliveryMode(t *testing.T) {
	assert.Equal(t, uint8(2), deliveryMode(true))
	assert.Equal(t, uint8(1), deliveryMode(false))
}
