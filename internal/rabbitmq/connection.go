package rabbitmq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeKind is the exchange type shared by the domain, audit and change
// feed exchanges. Routing keys are dotted ("friendship.accepted",
// "events.update") so consumers bind with wildcards.
const ExchangeKind = amqp.ExchangeTopic

// dialExchange connects to the broker and declares exchangeName on a fresh
// channel. On failure nothing is left open.
func dialExchange(amqpURL, exchangeName string) (*amqp.Connection, *amqp.Channel, error) {
	if exchangeName == "" {
		return nil, nil, errors.New("exchange name is required")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	const (
		durable    = true
		autoDelete = false
		internal   = false
		noWait     = false
	)
	if err := ch.ExchangeDeclare(exchangeName, ExchangeKind, durable, autoDelete, internal, noWait, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %q: %w", exchangeName, err)
	}
	return conn, ch, nil
}
