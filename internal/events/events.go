// Package events publishes order lifecycle messages to Kafka. Publishing
// is best-effort everywhere: a broker outage must never fail an order.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/logging"
	"github.com/vmelnikov/food_ordering/internal/models"
)

const (
	TopicOrders  = "order_events"
	TopicKitchen = "kitchen_events"
)

// Sink is what services publish through; Producer is the Kafka-backed
// implementation and NopSink the no-broker fallback.
type Sink interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error { return p.writer.Close() }

type NopSink struct{}

func (NopSink) Publish(context.Context, string, string, any) error { return nil }
func (NopSink) Close() error                                       { return nil }

type NewOrderEvent struct {
	Type              string          `json:"type"`
	OrderID           string          `json:"orderId"`
	OrderNumber       string          `json:"orderNumber"`
	Status            string          `json:"status"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	ItemCount         int             `json:"itemCount"`
	EstimatedPrepTime int             `json:"estimatedPrepTime"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type StatusUpdateEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ChangedBy   string    `json:"changedBy"`
	Notes       string    `json:"notes,omitempty"`
	ChangedAt   time.Time `json:"changedAt"`
}

// PublishNewOrder announces a freshly created order on the orders topic,
// keyed by order id so one order's events stay in partition order.
func PublishNewOrder(ctx context.Context, sink Sink, order *models.Order) {
	ev := NewOrderEvent{
		Type:              "ORDER_CREATED",
		OrderID:           order.ID.String(),
		OrderNumber:       order.OrderNumber,
		Status:            string(order.Status),
		TotalAmount:       order.TotalAmount,
		ItemCount:         len(order.Items),
		EstimatedPrepTime: order.EstimatedPrepTime,
		CreatedAt:         order.CreatedAt,
	}
	publish(ctx, sink, TopicOrders, order.ID.String(), ev)
	publish(ctx, sink, TopicKitchen, order.ID.String(), ev)
}

// PublishStatusUpdate announces a status transition on both topics.
func PublishStatusUpdate(ctx context.Context, sink Sink, order *models.Order, from models.OrderStatus, changedBy, notes string) {
	ev := StatusUpdateEvent{
		Type:        "STATUS_UPDATED",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		From:        string(from),
		To:          string(order.Status),
		ChangedBy:   changedBy,
		Notes:       notes,
		ChangedAt:   time.Now().UTC(),
	}
	publish(ctx, sink, TopicOrders, order.ID.String(), ev)
	publish(ctx, sink, TopicKitchen, order.ID.String(), ev)
}

func publish(ctx context.Context, sink Sink, topic, key string, event any) {
	if sink == nil {
		return
	}
	if err := sink.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "key", key, "error", err)
	}
}
