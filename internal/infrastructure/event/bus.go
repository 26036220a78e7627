package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/shared"
)

// InMemoryEventBus delivers domain events to subscribers synchronously, in
// subscription order. A failing or panicking handler is logged and does not
// stop delivery to the rest.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
	log      *zap.Logger
	running  bool
}

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryEventBus{
		byType: make(map[string][]shared.EventHandler),
		log:    log.Named("eventbus"),
	}
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)

// Publish returns an error only when the bus is stopped; handler failures
// are logged.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()
	if !running {
		return fmt.Errorf("event bus is not running")
	}

	for _, ev := range events {
		for _, h := range b.handlersFor(ev.EventType()) {
			if err := b.dispatch(ctx, h, ev); err != nil {
				b.log.Error("Event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("aggregate_id", ev.AggregateID().String()),
					zap.Time("occurred_at", ev.OccurredAt()),
					zap.Error(err))
			}
		}
	}
	return nil
}

// Subscribe registers h for eventTypes, or for h.EventTypes() when none are
// given. A handler with no types at all receives every event.
func (b *InMemoryEventBus) Subscribe(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = h.EventTypes()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, h)
		return
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], h)
	}
}

func (b *InMemoryEventBus) Unsubscribe(h shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = without(b.wildcard, h)
	for t, hs := range b.byType {
		if hs = without(hs, h); len(hs) == 0 {
			delete(b.byType, t)
		} else {
			b.byType[t] = hs
		}
	}
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	b.log.Info("Event bus started")
	return nil
}

func (b *InMemoryEventBus) Stop(context.Context) error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
	b.log.Info("Event bus stopped")
	return nil
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]shared.EventHandler, 0, len(b.byType[eventType])+len(b.wildcard))
	out = append(out, b.byType[eventType]...)
	return append(out, b.wildcard...)
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

func without(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	out := hs[:0]
	for _, x := range hs {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}
