package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/shared"
)

// AggregateTypeRun is the aggregate type of pipeline runs.
const AggregateTypeRun = "PipelineRun"

// RunStatus is the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusPending             RunStatus = "PENDING"
	RunStatusRunning             RunStatus = "RUNNING"
	RunStatusCompleted           RunStatus = "COMPLETED"
	RunStatusCompletedWithErrors RunStatus = "COMPLETED_WITH_ERRORS"
	RunStatusFailed              RunStatus = "FAILED"
)

// IsValid reports whether s is a known run status.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusCompletedWithErrors, RunStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the run has finished.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCompletedWithErrors || s == RunStatusFailed
}

// StageRecord tracks the execution of one stage within a run.
type StageRecord struct {
	Stage       StageName       `json:"stage"`
	Status      StageStatus     `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"current_step,omitempty"`
	Confidence  int             `json:"confidence"`
	Reasoning   []string        `json:"reasoning,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
	Output      json.RawMessage `json:"output,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	Duration    time.Duration   `json:"duration"`
}

// Run is one execution of the seven-stage pipeline for a brief.
type Run struct {
	shared.BaseAggregateRoot
	Brief        Brief          `json:"brief"`
	Status       RunStatus      `json:"status"`
	ScheduleID   *uuid.UUID     `json:"schedule_id,omitempty"`
	CurrentStage StageName      `json:"current_stage,omitempty"`
	Stages       []*StageRecord `json:"stages"`
	Errors       []string       `json:"errors"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Duration     time.Duration  `json:"duration"`
}

// NewRun creates a pending run for a validated brief.
func NewRun(brief Brief) (*Run, error) {
	b, err := NewBrief(brief)
	if err != nil {
		return nil, err
	}
	run := &Run{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Brief:             b,
		Status:            RunStatusPending,
		Errors:            []string{},
	}
	for _, st := range Stages() {
		run.Stages = append(run.Stages, &StageRecord{Stage: st, Status: StageStatusPending})
	}
	return run, nil
}

// NewScheduledRun creates a run triggered by a schedule.
func NewScheduledRun(brief Brief, scheduleID uuid.UUID) (*Run, error) {
	run, err := NewRun(brief)
	if err != nil {
		return nil, err
	}
	run.ScheduleID = &scheduleID
	return run, nil
}

// Stage returns the record of a stage, or nil for an unknown stage.
func (r *Run) Stage(name StageName) *StageRecord {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s
		}
	}
	return nil
}

// Start moves a pending run to running.
func (r *Run) Start() error {
	if r.Status != RunStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start run in %s status", r.Status))
	}
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.IncrementVersion()
	r.AddDomainEvent(NewRunStartedEvent(r))
	return nil
}

// BeginStage marks a stage as running.
func (r *Run) BeginStage(name StageName) error {
	rec, err := r.mutableStage(name)
	if err != nil {
		return err
	}
	now := time.Now()
	rec.Status = StageStatusRunning
	rec.Progress = 0
	rec.StartedAt = &now
	r.CurrentStage = name
	r.Touch()
	return nil
}

// ReportProgress records live progress of a running stage.
func (r *Run) ReportProgress(name StageName, progress int, step string) {
	rec := r.Stage(name)
	if rec == nil || rec.Status != StageStatusRunning {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	rec.Progress = progress
	rec.CurrentStep = step
}

// StageOutcome is what an agent reported for a finished stage.
type StageOutcome struct {
	Output     json.RawMessage
	Reasoning  []string
	Confidence int
	Metadata   map[string]any
	Errors     []string
	Duration   time.Duration
}

// CompleteStage records a successful stage.
func (r *Run) CompleteStage(name StageName, outcome StageOutcome) error {
	rec, err := r.mutableStage(name)
	if err != nil {
		return err
	}
	r.finishStage(rec, StageStatusSucceeded, outcome)
	r.AddDomainEvent(NewStageCompletedEvent(r, rec))
	return nil
}

// FailStage records a failed stage and appends its errors to the run.
func (r *Run) FailStage(name StageName, outcome StageOutcome) error {
	rec, err := r.mutableStage(name)
	if err != nil {
		return err
	}
	if len(outcome.Errors) == 0 {
		outcome.Errors = []string{"unknown error"}
	}
	r.finishStage(rec, StageStatusFailed, outcome)
	r.Errors = append(r.Errors, fmt.Sprintf("%s failed: %s", name.DisplayName(), strings.Join(outcome.Errors, "; ")))
	r.AddDomainEvent(NewStageFailedEvent(r, rec))
	return nil
}

// SkipStage marks a stage as skipped with a reason.
func (r *Run) SkipStage(name StageName, reason string) error {
	rec, err := r.mutableStage(name)
	if err != nil {
		return err
	}
	rec.Status = StageStatusSkipped
	rec.CurrentStep = reason
	r.Touch()
	return nil
}

// SkipRemaining skips every stage that has not run yet.
func (r *Run) SkipRemaining(reason string) {
	for _, rec := range r.Stages {
		if rec.Status == StageStatusPending {
			rec.Status = StageStatusSkipped
			rec.CurrentStep = reason
		}
	}
}

// Finish settles the final status from the stage outcomes.
func (r *Run) Finish() error {
	if r.Status != RunStatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finish run in %s status", r.Status))
	}
	now := time.Now()
	r.FinishedAt = &now
	if r.StartedAt != nil {
		r.Duration = now.Sub(*r.StartedAt)
	}
	r.CurrentStage = ""
	switch {
	case r.criticalFailed():
		r.Status = RunStatusFailed
	case len(r.Errors) > 0:
		r.Status = RunStatusCompletedWithErrors
	default:
		r.Status = RunStatusCompleted
	}
	r.IncrementVersion()
	r.AddDomainEvent(NewRunFinishedEvent(r))
	return nil
}

// Abort fails a running run for a reason outside any stage. A stage still
// running is failed with the same reason.
func (r *Run) Abort(reason string) error {
	if r.Status != RunStatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot abort run in %s status", r.Status))
	}
	r.Errors = append(r.Errors, reason)
	now := time.Now()
	for _, rec := range r.Stages {
		if rec.Status == StageStatusRunning {
			rec.Status = StageStatusFailed
			rec.Errors = append(rec.Errors, reason)
			rec.FinishedAt = &now
			if rec.StartedAt != nil {
				rec.Duration = now.Sub(*rec.StartedAt)
			}
		}
	}
	r.SkipRemaining("run aborted")
	r.CurrentStage = ""
	r.FinishedAt = &now
	if r.StartedAt != nil {
		r.Duration = now.Sub(*r.StartedAt)
	}
	r.Status = RunStatusFailed
	r.IncrementVersion()
	r.AddDomainEvent(NewRunFinishedEvent(r))
	return nil
}

// Succeeded reports whether the run finished without errors.
func (r *Run) Succeeded() bool {
	return r.Status == RunStatusCompleted
}

// AgentsCompleted counts succeeded stages.
func (r *Run) AgentsCompleted() int {
	n := 0
	for _, rec := range r.Stages {
		if rec.Status == StageStatusSucceeded {
			n++
		}
	}
	return n
}

// Progress is the overall completion percentage across stages.
func (r *Run) Progress() int {
	if len(r.Stages) == 0 {
		return 0
	}
	total := 0
	for _, rec := range r.Stages {
		if rec.Status.IsTerminal() {
			total += 100
		} else {
			total += rec.Progress
		}
	}
	return total / len(r.Stages)
}

// CanDelete reports whether the run may be removed.
func (r *Run) CanDelete() bool {
	return r.Status != RunStatusRunning
}

func (r *Run) criticalFailed() bool {
	for _, rec := range r.Stages {
		if rec.Stage.IsCritical() && rec.Status == StageStatusFailed {
			return true
		}
	}
	return false
}

func (r *Run) mutableStage(name StageName) (*StageRecord, error) {
	if r.Status != RunStatusRunning {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Run is %s, stages cannot change", r.Status))
	}
	rec := r.Stage(name)
	if rec == nil {
		return nil, shared.NewDomainError("UNKNOWN_STAGE", fmt.Sprintf("Unknown stage %q", name))
	}
	if rec.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Stage %s already %s", name, rec.Status))
	}
	return rec, nil
}

func (r *Run) finishStage(rec *StageRecord, status StageStatus, o StageOutcome) {
	now := time.Now()
	rec.Status = status
	rec.Progress = 100
	rec.Output = o.Output
	rec.Reasoning = o.Reasoning
	rec.Confidence = o.Confidence
	rec.Metadata = o.Metadata
	rec.Errors = o.Errors
	rec.FinishedAt = &now
	rec.Duration = o.Duration
	if rec.Duration == 0 && rec.StartedAt != nil {
		rec.Duration = now.Sub(*rec.StartedAt)
	}
	r.Touch()
}
