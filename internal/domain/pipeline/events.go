package pipeline

import (
	"time"

	"github.com/seoblog/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeRunStarted     = "RunStarted"
	EventTypeStageCompleted = "StageCompleted"
	EventTypeStageFailed    = "StageFailed"
	EventTypeRunFinished    = "RunFinished"
)

// RunStartedEvent is published when a run begins executing.
type RunStartedEvent struct {
	shared.BaseDomainEvent
	ProductName string `json:"product_name"`
	Niche       string `json:"niche"`
}

func NewRunStartedEvent(r *Run) *RunStartedEvent {
	return &RunStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunStarted, AggregateTypeRun, r.ID),
		ProductName:     r.Brief.ProductName,
		Niche:           r.Brief.Niche,
	}
}

// StageCompletedEvent is published when a stage succeeds.
type StageCompletedEvent struct {
	shared.BaseDomainEvent
	Stage      StageName     `json:"stage"`
	Confidence int           `json:"confidence"`
	Duration   time.Duration `json:"duration"`
}

func NewStageCompletedEvent(r *Run, rec *StageRecord) *StageCompletedEvent {
	return &StageCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStageCompleted, AggregateTypeRun, r.ID),
		Stage:           rec.Stage,
		Confidence:      rec.Confidence,
		Duration:        rec.Duration,
	}
}

// StageFailedEvent is published when a stage fails.
type StageFailedEvent struct {
	shared.BaseDomainEvent
	Stage    StageName     `json:"stage"`
	Errors   []string      `json:"errors"`
	Duration time.Duration `json:"duration"`
}

func NewStageFailedEvent(r *Run, rec *StageRecord) *StageFailedEvent {
	return &StageFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStageFailed, AggregateTypeRun, r.ID),
		Stage:           rec.Stage,
		Errors:          rec.Errors,
		Duration:        rec.Duration,
	}
}

// RunFinishedEvent is published when a run reaches a terminal status.
type RunFinishedEvent struct {
	shared.BaseDomainEvent
	Status          RunStatus     `json:"status"`
	AgentsCompleted int           `json:"agents_completed"`
	Errors          []string      `json:"errors"`
	Duration        time.Duration `json:"duration"`
}

func NewRunFinishedEvent(r *Run) *RunFinishedEvent {
	return &RunFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRunFinished, AggregateTypeRun, r.ID),
		Status:          r.Status,
		AgentsCompleted: r.AgentsCompleted(),
		Errors:          append([]string(nil), r.Errors...),
		Duration:        r.Duration,
	}
}
