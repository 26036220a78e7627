package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/pipeline"
)

// Progress event types.
const (
	ProgressEventStage    = "progress"
	ProgressEventAgent    = "agent"
	ProgressEventFinished = "finished"
)

const subscriberBuffer = 64

// ProgressEvent is one live update of a running pipeline.
type ProgressEvent struct {
	Type     string             `json:"type"`
	RunID    uuid.UUID          `json:"run_id"`
	Stage    pipeline.StageName `json:"stage,omitempty"`
	Progress int                `json:"progress"`
	Overall  int                `json:"overall_progress"`
	Status   string             `json:"status"`
	Step     string             `json:"step,omitempty"`
	Data     map[string]any     `json:"data,omitempty"`
	At       time.Time          `json:"at"`
}

type subscriber struct {
	id uuid.UUID
	ch chan ProgressEvent
}

// ProgressHub fans run progress out to stream subscribers. Slow subscribers
// lose events instead of blocking the pipeline.
type ProgressHub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID][]*subscriber
	last   map[uuid.UUID]ProgressEvent
	logger *zap.Logger
}

// NewProgressHub creates an empty hub.
func NewProgressHub(logger *zap.Logger) *ProgressHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHub{
		subs:   make(map[uuid.UUID][]*subscriber),
		last:   make(map[uuid.UUID]ProgressEvent),
		logger: logger,
	}
}

// Subscribe registers for the events of one run. The latest event, if any,
// is delivered first. The returned cancel func must be called once.
func (h *ProgressHub) Subscribe(runID uuid.UUID) (<-chan ProgressEvent, func()) {
	s := &subscriber{id: uuid.New(), ch: make(chan ProgressEvent, subscriberBuffer)}

	h.mu.Lock()
	h.subs[runID] = append(h.subs[runID], s)
	if ev, ok := h.last[runID]; ok {
		s.ch <- ev
	}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() { h.remove(runID, s) })
	}
}

// Publish delivers an event to the subscribers of its run.
func (h *ProgressHub) Publish(ev ProgressEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[ev.RunID] = ev
	for _, s := range h.subs[ev.RunID] {
		select {
		case s.ch <- ev:
		default:
			h.logger.Debug("Progress subscriber full, dropping event",
				zap.String("run_id", ev.RunID.String()),
				zap.String("subscriber", s.id.String()),
			)
		}
	}
}

// Finish sends the final event and closes every subscription of the run.
// A full subscriber loses its oldest event so the final one always arrives.
func (h *ProgressHub) Finish(ev ProgressEvent) {
	ev.Type = ProgressEventFinished
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs[ev.RunID] {
		select {
		case s.ch <- ev:
		default:
			select {
			case <-s.ch:
			default:
			}
			s.ch <- ev
		}
		close(s.ch)
	}
	delete(h.subs, ev.RunID)
	delete(h.last, ev.RunID)
}

// Subscribers counts the open subscriptions of a run.
func (h *ProgressHub) Subscribers(runID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[runID])
}

func (h *ProgressHub) remove(runID uuid.UUID, target *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[runID]
	for i, s := range subs {
		if s == target {
			close(s.ch)
			h.subs[runID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subs[runID]) == 0 {
		delete(h.subs, runID)
	}
}
