package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/recipe-hub/internal/application/auth"
)

type fakeChannel struct {
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
	confirms   chan amqp.Confirmation
	ack        bool
	autoAck    bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	f.keys = append(f.keys, key)
	if f.autoAck {
		f.confirms <- amqp.Confirmation{DeliveryTag: uint64(len(f.published)), Ack: f.ack}
	}
	return nil
}

func (f *fakeChannel) IsClosed() bool { return f.closed }
func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(ch *fakeChannel, dials *int) *Publisher {
	return &Publisher{
		exchange: DefaultExchange,
		dial: func(url, exchange string) (session, error) {
			*dials++
			ch.closed = false
			return session{ch: ch, confirms: ch.confirms}, nil
		},
	}
}

func sampleEvent() auth.UserRegisteredEvent {
	return auth.UserRegisteredEvent{
		UserID:     "u1",
		Email:      "chef@example.com",
		Username:   "chef",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPublisher_UserRegistered_Acked(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: true, autoAck: true}
	dials := 0
	p := newTestPublisher(ch, &dials)

	require.NoError(t, p.PublishUserRegistered(context.Background(), sampleEvent()))
	require.Len(t, ch.published, 1)
	assert.Equal(t, RoutingUserRegistered, ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &msg))
	assert.Equal(t, "user.registered", msg["event_type"])
	assert.Equal(t, "u1", msg["user_id"])
	assert.Equal(t, "chef", msg["username"])
	assert.Equal(t, "2026-01-02T03:04:05Z", msg["occurred_at"])
	assert.NotContains(t, msg, "password")

	// the session is reused
	require.NoError(t, p.PublishUserRegistered(context.Background(), sampleEvent()))
	assert.Equal(t, 1, dials)
}

func TestPublisher_Nack_ReturnsError(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: false, autoAck: true}
	dials := 0
	p := newTestPublisher(ch, &dials)

	err := p.PublishUserRegistered(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nack")
}

func TestPublisher_PublishFailure_Reconnects(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: true, autoAck: true, publishErr: errors.New("channel closed")}
	dials := 0
	p := newTestPublisher(ch, &dials)

	require.Error(t, p.PublishUserRegistered(context.Background(), sampleEvent()))
	assert.True(t, ch.closed)

	ch.publishErr = nil
	require.NoError(t, p.PublishUserRegistered(context.Background(), sampleEvent()))
	assert.Equal(t, 2, dials)
}

func TestPublisher_ConfirmTimeout(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1)}
	dials := 0
	p := newTestPublisher(ch, &dials)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.PublishUserRegistered(ctx, sampleEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, ch.closed)
}

func TestPublisher_DialFailure(t *testing.T) {
	p := &Publisher{
		exchange: DefaultExchange,
		dial: func(string, string) (session, error) {
			return session{}, errors.New("connection refused")
		},
	}
	assert.Error(t, p.PublishUserRegistered(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
