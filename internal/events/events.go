// Package events publishes ledger and stock events to RabbitMQ for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PaymentRecorded     = "payment.recorded"
	TransactionRecorded = "transaction.recorded"
	SwapRecorded        = "swap.recorded"
	LowStock            = "inventory.low_stock"
	TaskCompleted       = "task.completed"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType, actorID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
