// Package events carries order status changes to external brokers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"food-ordering-api/config"
	"food-ordering-api/models"
)

// OrderStatusChanged is pushed to WebSocket subscribers and brokers after every
// persisted status change.
type OrderStatusChanged struct {
	OrderID      uint               `json:"orderId"`
	OrderNumber  string             `json:"orderNumber"`
	RestaurantID uint               `json:"restaurantId"`
	CustomerID   uint               `json:"customerId"`
	Status       models.OrderStatus `json:"status"`
	Label        string             `json:"label"`
	At           time.Time          `json:"at"`
}

func (e OrderStatusChanged) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher hands events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, evt OrderStatusChanged) error
	Close() error
}

// Nop drops every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, OrderStatusChanged) error { return nil }
func (Nop) Close() error                                      { return nil }

// New builds the publisher selected by cfg.Broker.
func New(cfg *config.Config) (Publisher, error) {
	switch cfg.Broker {
	case "", "none":
		return Nop{}, nil
	case "amqp":
		return NewAMQP(cfg.AMQPURL)
	case "kafka":
		return NewKafka(cfg.KafkaBrokerList()), nil
	default:
		return nil, fmt.Errorf("unsupported broker %q", cfg.Broker)
	}
}
