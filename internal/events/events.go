package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"bistro-pos/internal/logger"
	"bistro-pos/internal/metrics"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	OrderCreated       = "order.created"
	OrderItemsChanged  = "order.items_changed"
	OrderStatusChanged = "order.status_changed"
	PaymentSettled     = "payment.settled"
	PaymentCancelled   = "payment.cancelled"
)

// Event is published only after the transaction that produced it committed.
type Event struct {
	Type       string    `json:"type"`
	OrderID    int64     `json:"order_id"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

// Publish keys messages by order so every event of one order lands on the same
// partition in commit order.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", ev.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request_id", Value: []byte(reqID)})
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Emit publishes ev and never fails the caller: the state change it describes
// is already committed. Failures are logged and counted.
func Emit(ctx context.Context, p Publisher, m *metrics.Registry, ev Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	if err := p.Publish(ctx, ev); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish event",
			zap.String("type", ev.Type),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
		if m != nil {
			m.EventsFailed.Inc()
		}
		return
	}
	if m != nil {
		m.EventsPublished.Inc()
	}
}
