package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// MessageWriter описывает часть kafka.Writer, нужную для публикации.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier публикует события в топик. Ключ сообщения задаётся сессией или заказом,
// события одной сделки попадают в одну партицию по порядку.
type KafkaNotifier struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev entity.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: не удалось сериализовать событие: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(eventKey(ev)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	carrier := headerCarrier{headers: &msg.Headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: не удалось опубликовать событие %s: %w", ev.Type, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func eventKey(ev entity.Event) string {
	switch {
	case ev.SessionID != nil:
		return ev.SessionID.String()
	case ev.OrderID != nil:
		return ev.OrderID.String()
	}
	return ev.Seller().String()
}

// headerCarrier переносит контекст трассировки в заголовки сообщения.
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
