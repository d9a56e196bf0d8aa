// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName = "studiohub.events"
	ExchangeKind = "topic"
)

// Routing keys.
const (
	EnrollmentCreated   = "enrollment.created"
	EnrollmentCancelled = "enrollment.cancelled"
	PaymentSucceeded    = "payment.succeeded"
	PaymentFailed       = "payment.failed"
	PaymentRefunded     = "payment.refunded"
	InvitationAccepted  = "invitation.accepted"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Envelope is the message body written to the exchange.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewEnvelope(routingKey string, payload any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
}

// AMQPPublisher publishes to the events exchange over one channel. A
// channel or connection lost to a broker restart is redialled on the next
// Publish.
type AMQPPublisher struct {
	mu      sync.Mutex
	url     string
	dial    func(url string) (*amqp.Connection, error)
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, dial: amqp.Dial, log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held or before p is shared.
func (p *AMQPPublisher) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			p.log.Warn("rabbitmq connection lost", zap.Error(amqpErr))
		}
	}()

	p.conn, p.channel = conn, ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// ensureChannel redials when the channel is missing or closed.
func (p *AMQPPublisher) ensureChannel() error {
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.reset()
	if err := p.connect(); err != nil {
		return fmt.Errorf("rabbitmq reconnect: %w", err)
	}
	p.log.Info("rabbitmq reconnected")
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	env := NewEnvelope(routingKey, payload)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Type:         routingKey,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		p.reset()
		if err := p.ensureChannel(); err != nil {
			return err
		}
		err = p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.log.Debug("event published", zap.String("routing_key", routingKey), zap.String("event_id", env.ID))
	return nil
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

// Memory records published events in order.
type Memory struct {
	mu     sync.Mutex
	events []Envelope
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(_ context.Context, routingKey string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, NewEnvelope(routingKey, payload))
	return nil
}

func (m *Memory) Events() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Envelope, len(m.events))
	copy(out, m.events)
	return out
}

// Count returns how many events were published under routingKey.
func (m *Memory) Count(routingKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == routingKey {
			n++
		}
	}
	return n
}

// PublishSafe publishes and logs failures instead of returning them, so a
// broker outage never fails the request that produced the event.
func PublishSafe(ctx context.Context, p Publisher, log *zap.Logger, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		log.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
