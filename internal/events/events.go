// Package events publishes order lifecycle events to Kafka for downstream
// consumers (notifications, analytics). Publishing is best-effort; the
// order pipeline never fails because a broker is down.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Event types emitted by the order pipeline.
const (
	TypeOrderCreated   = "order.created"
	TypeOrderCancelled = "order.cancelled"
)

// OrderEvent is the wire payload for an order lifecycle change.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher emits order events.
type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Close() error
}

// Nop is a Publisher that drops every event. Used when no brokers are
// configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// KafkaPublisher writes order events to a single Kafka topic, keyed by
// order id so events for one order stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a KafkaPublisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Publish serializes the event to JSON and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, "write order event")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
