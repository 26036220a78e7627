package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about a run or an article, published after the
// aggregate that raised it has been saved.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// EventHandler reacts to published events. An empty EventTypes subscribes
// to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// BaseDomainEvent is embedded by the concrete pipeline events.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggID     uuid.UUID `json:"aggregate_id"`
	AggType   string    `json:"aggregate_type"`
}

func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		AggID:     aggID,
		AggType:   aggType,
	}
}

func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggID }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggType }
