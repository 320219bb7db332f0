package kafka

import (
	"context"
	"strconv"

	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/segmentio/kafka-go"
)

// EventPublisher adapts Producer to sales.EventPublisher.
type EventPublisher struct {
	P *Producer
}

func (e EventPublisher) Publish(ctx context.Context, topic string, env orders.Envelope) error {
	value, err := Marshal(env)
	if err != nil {
		return err
	}
	return e.P.Publish(ctx, topic, orders.PartitionKey(env.CorrelationID), value,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
