package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"squad-service/internal/observability"
)

const publishTimeout = 5 * time.Second

// Publisher emits JSON messages onto a topic exchange. Implementations must
// be safe for concurrent use; the repositories publish from request
// goroutines and the audit emitter shares the same instance.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	closed   chan *amqp.Error
}

// NewPublisher dials amqpURL and declares exchangeName as a durable topic
// exchange. Once the broker closes the channel every later Publish returns
// amqp.ErrClosed; callers treat that as a lost event, not a failed write.
func NewPublisher(amqpURL, exchangeName string) (Publisher, error) {
	conn, ch, err := dialExchange(amqpURL, exchangeName)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: publisher on %q: %w", exchangeName, err)
	}
	p := &publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchangeName,
		closed:   ch.NotifyClose(make(chan *amqp.Error, 1)),
	}
	go p.watch()
	return p, nil
}

func (p *publisher) watch() {
	reason, ok := <-p.closed
	if !ok {
		return
	}
	slog.Warn("rabbitmq channel closed by broker", "exchange", p.exchange, "reason", reason)
	p.mu.Lock()
	p.channel = nil
	p.mu.Unlock()
}

func (p *publisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		observability.IncAMQPPublishError()
		return amqp.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		AppId:        "squad-service",
		Body:         body,
		Timestamp:    time.Now().UTC(),
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		observability.IncAMQPPublishError()
		return fmt.Errorf("rabbitmq: publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		err = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
		p.conn = nil
	}
	return err
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every message. It backs
// local runs without a broker.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	slog.Debug("rabbitmq disabled; dropping message", "routing_key", routingKey)
	return nil
}

func (noopPublisher) Close() error { return nil }
