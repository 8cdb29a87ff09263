package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

type fakeAcknowledger struct {
	acked    []uint64
	nacked   []uint64
	requeued bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeued = f.requeued || requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}
	d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, RoutingKey: "db.events", Body: []byte(`{}`)}

	var gotKey string
	HandleDelivery(context.Background(), d, func(ctx context.Context, routingKey string, body []byte) error {
		gotKey = routingKey
		return nil
	})

	assert.Equal(t, "db.events", gotKey)
	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestHandleDeliveryNacksWithoutRequeue(t *testing.T) {
	ack := &fakeAcknowledger{}
	d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 9}

	HandleDelivery(context.Background(), d, func(ctx context.Context, routingKey string, body []byte) error {
		return errors.New("bad payload")
	})

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{9}, ack.nacked)
	assert.False(t, ack.requeued)
}
