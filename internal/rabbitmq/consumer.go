package rabbitmq

import (
	"context"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler processes one message body. Returning an error rejects
// the message without requeueing it.
type DeliveryHandler func(ctx context.Context, routingKey string, body []byte) error

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
}

// NewConsumer declares exchangeName, a durable queue bound to it with
// bindingKey, and returns a consumer for that queue.
func NewConsumer(amqpURL, exchangeName, queue, bindingKey string) (*Consumer, error) {
	conn, ch, err := dialExchange(amqpURL, exchangeName)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-deleted
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.QueueBind(q.Name, bindingKey, exchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(16, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, channel: ch, queue: q.Name}, nil
}

// Run consumes until ctx is canceled or the channel closes.
func (c *Consumer) Run(ctx context.Context, handle DeliveryHandler) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx,
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			HandleDelivery(ctx, d, handle)
		}
	}
}

// HandleDelivery runs handle for d and acks or rejects it. Failed
// deliveries are not requeued.
func HandleDelivery(ctx context.Context, d amqp.Delivery, handle DeliveryHandler) {
	if err := handle(ctx, d.RoutingKey, d.Body); err != nil {
		slog.Error("failed to handle delivery", "routing_key", d.RoutingKey, "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			slog.Warn("failed to nack delivery", "error", nackErr)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		slog.Warn("failed to ack delivery", "error", err)
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return nil
}
