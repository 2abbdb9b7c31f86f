// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"orderservice/pkg/order"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderUpdated       = "order.updated"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderDeleted       = "order.deleted"
)

// Event is the envelope written to the broker.
type Event struct {
	EventID   string       `json:"event_id"`
	Type      string       `json:"type"`
	OrderID   string       `json:"order_id"`
	CreatedAt time.Time    `json:"created_at"`
	Order     *order.Order `json:"order,omitempty"`
}

// New builds an event for o. A nil o is allowed for deletions.
func New(eventType, orderID string, o *order.Order) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
		Order:     o,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON messages keyed by order id, so every event of
// one order lands on the same partition.
type Kafka struct {
	writer MessageWriter
}

// NewKafkaWriter returns a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafka returns a Publisher writing through w.
func NewKafka(w MessageWriter) *Kafka {
	return &Kafka{writer: w}
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.OrderID),
		Value: data,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
