package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SergeyBogomolovv/order-processing-service/internal/config"
	"github.com/SergeyBogomolovv/order-processing-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	OrderCreated    EventType = "order.created"
	OrderConfirmed  EventType = "order.confirmed"
	OrderFailed     EventType = "order.failed"
	OrderCancelled  EventType = "order.cancelled"
	OrderRefunded   EventType = "order.refunded"
	OrderCompleted  EventType = "order.completed"
	PaymentRefunded EventType = "payment.refunded"
)

// OrderEvent публикуется после коммита транзакции,
// чтобы подписчики никогда не видели незакоммиченные переходы.
type OrderEvent struct {
	Type        EventType `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewOrderEvent(t EventType, order entities.Order) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total.String(),
		OccurredAt:  time.Now(),
	}
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.Kafka) *kafkaPublisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.EventsTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// ключ - id заказа, чтобы события одного заказа шли в одну партицию по порядку
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
