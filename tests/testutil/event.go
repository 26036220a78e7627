package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/seoblog/backend/internal/domain/shared"
)

// MockEventHandler records the events it handles.
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler creates a handler for eventTypes; none means all.
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{eventTypes: eventTypes}
}

func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the handled events.
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes Handle return err.
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// RecordingPublisher is a shared.EventPublisher that keeps what it is given.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Types lists the published event types in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// TestEvent is a bare domain event.
type TestEvent struct {
	shared.BaseDomainEvent
	Data string
}

// NewTestEvent creates an event of eventType on aggregate aggID.
func NewTestEvent(eventType string, aggID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", aggID),
		Data:            "test-data",
	}
}
