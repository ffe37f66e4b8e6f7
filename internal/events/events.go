// Package events publishes committed order and delivery changes to
// downstream consumers (Kafka, WebSocket rooms).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	Producer = "mugifumi-api"
	Version  = 1
)

// ── Event types ──

const (
	OrderCreated = "order.created"
	OrderUpdated = "order.updated"
	OrderPaid    = "order.paid"
	OrderDeleted = "order.deleted"
	OrderExpired = "order.expired"

	DeliveryCreated   = "delivery.created"
	DeliveryCompleted = "delivery.completed"
	DeliveryCancelled = "delivery.cancelled"
)

// Event is the envelope shared by every transport. Payload is typed per
// EventType (see the *Payload structs below).
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Location      string          `json:"location"`
	Payload       json.RawMessage `json:"payload"`

	// Partition key, usually the order id.
	Key string `json:"-"`
}

// New builds an envelope around payload.
func New(eventType, location, key, correlationID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  Version,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: correlationID,
		Location:      location,
		Payload:       raw,
		Key:           key,
	}, nil
}

// ── Payloads ──

type OrderItemPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
	Price     int64 `json:"price"`
}

type OrderPayload struct {
	OrderID     int64              `json:"order_id"`
	Outlet      string             `json:"outlet"`
	Customer    string             `json:"customer,omitempty"`
	Status      string             `json:"status"`
	TotalAmount int64              `json:"total_amount"`
	ActPayout   *int64             `json:"act_payout,omitempty"`
	PaymentLink string             `json:"payment_link,omitempty"`
	Items       []OrderItemPayload `json:"items,omitempty"`
}

type DeliveryPayload struct {
	DeliveryID int64    `json:"delivery_id"`
	OrderID    int64    `json:"order_id"`
	Status     string   `json:"status"`
	Barcodes   []string `json:"barcodes,omitempty"`
}

// Publisher delivers events after the owning transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

// Nop discards events.
func Nop() Publisher { return nop{} }

// Fanout publishes to every publisher and combines their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var err error
	for _, p := range f {
		if p == nil {
			continue
		}
		err = multierr.Append(err, p.Publish(ctx, event))
	}
	return err
}
