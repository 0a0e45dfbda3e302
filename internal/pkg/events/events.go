package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a domain event published for downstream consumers. AggregateID
// is used as the partition key so events of one employee stay ordered.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	CompanyID     string          `json:"company_id"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher is used when no Kafka brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, ...Event) error { return nil }
func (noopPublisher) Close() error                            { return nil }

// NewEvent builds an event with a fresh id, marshalling payload as JSON.
func NewEvent(eventType, aggregateType, aggregateID, companyID string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		CompanyID:     companyID,
		Payload:       raw,
		OccurredAt:    time.Now().UTC(),
	}, nil
}
