package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/recipe-hub/internal/application/auth"
)

const (
	DefaultExchange = "recipe.events"

	RoutingUserRegistered = "auth.user.registered"

	confirmWait = 2 * time.Second
)

// channel is the part of *amqp.Channel the publisher drives.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type session struct {
	ch       channel
	confirms <-chan amqp.Confirmation
	conn     io.Closer
}

type dialFunc func(url, exchange string) (session, error)

// Publisher sends integration events to a topic exchange in confirm mode.
// The connection is opened lazily again after any channel failure.
type Publisher struct {
	url      string
	exchange string
	dial     dialFunc

	mu   sync.Mutex
	sess *session
}

func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: DefaultExchange, dial: dialAMQP}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnected(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetConn()
	return nil
}

// ---- auth.EventPublisher ----

type userRegisteredMessage struct {
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Username   string    `json:"username,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p *Publisher) PublishUserRegistered(ctx context.Context, evt auth.UserRegisteredEvent) error {
	return p.publishJSON(ctx, RoutingUserRegistered, userRegisteredMessage{
		EventType:  "user.registered",
		UserID:     evt.UserID,
		Email:      evt.Email,
		Username:   evt.Username,
		OccurredAt: evt.OccurredAt,
	})
}

// ---- internal ----

func dialAMQP(url, exchange string) (session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return session{}, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return session{}, fmt.Errorf("rabbitmq channel: %w", err)
	}

	// topic exchange, durable, idempotent declare
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return session{}, fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return session{}, fmt.Errorf("confirm mode: %w", err)
	}

	return session{
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		conn:     conn,
	}, nil
}

// ensureConnected must be called with p.mu held.
func (p *Publisher) ensureConnected() error {
	if p.sess != nil && !p.sess.ch.IsClosed() {
		return nil
	}
	p.resetConn()
	s, err := p.dial(p.url, p.exchange)
	if err != nil {
		return err
	}
	p.sess = &s
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, confirmWait)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(); err != nil {
		return err
	}

	if err := p.sess.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	}); err != nil {
		p.resetConn()
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	select {
	case conf, ok := <-p.sess.confirms:
		if !ok {
			p.resetConn()
			return fmt.Errorf("rabbitmq confirm channel closed: key=%s", routingKey)
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag)
		}
		return nil
	case <-ctx.Done():
		// an unconfirmed publish leaves the confirm stream out of step; start over next time
		p.resetConn()
		return fmt.Errorf("rabbitmq confirm: key=%s: %w", routingKey, ctx.Err())
	}
}

func (p *Publisher) resetConn() {
	if p.sess == nil {
		return
	}
	_ = p.sess.ch.Close()
	if p.sess.conn != nil {
		_ = p.sess.conn.Close()
	}
	p.sess = nil
}
