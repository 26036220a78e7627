package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/pipeline"
)

// PipelineRunModel is the row of a pipeline run. Stage records live in
// stage_results.
type PipelineRunModel struct {
	AggregateModel
	ProductName  string             `gorm:"type:varchar(200);not null;index"`
	Niche        string             `gorm:"type:varchar(200);not null"`
	Status       pipeline.RunStatus `gorm:"type:varchar(30);not null;index"`
	ScheduleID   *uuid.UUID         `gorm:"type:uuid;index"`
	CurrentStage string             `gorm:"type:varchar(40)"`
	BriefJSON    string             `gorm:"column:brief;type:text;not null"`
	ErrorsJSON   string             `gorm:"column:errors;type:text"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	DurationMs   int64              `gorm:"not null;default:0"`
	Stages       []StageResultModel `gorm:"foreignKey:RunID;references:ID;constraint:OnDelete:CASCADE"`
}

func (PipelineRunModel) TableName() string { return "pipeline_runs" }

// StageResultModel is one stage of a run, keyed by (run_id, stage).
type StageResultModel struct {
	RunID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Stage         string    `gorm:"type:varchar(40);primaryKey"`
	Position      int       `gorm:"not null"`
	Status        string    `gorm:"type:varchar(20);not null"`
	Progress      int       `gorm:"not null;default:0"`
	CurrentStep   string    `gorm:"type:varchar(200)"`
	Confidence    int       `gorm:"not null;default:0"`
	ReasoningJSON string    `gorm:"column:reasoning;type:text"`
	ErrorsJSON    string    `gorm:"column:errors;type:text"`
	Output        string    `gorm:"type:text"`
	MetadataJSON  string    `gorm:"column:metadata;type:text"`
	StartedAt     *time.Time
	FinishedAt    *time.Time
	DurationMs    int64 `gorm:"not null;default:0"`
}

func (StageResultModel) TableName() string { return "stage_results" }

// PipelineRunModelFromDomain flattens a run and its stage records.
func PipelineRunModelFromDomain(r *pipeline.Run) (*PipelineRunModel, error) {
	brief, err := encodeJSON(r.Brief)
	if err != nil {
		return nil, err
	}
	errs, err := encodeJSON(r.Errors)
	if err != nil {
		return nil, err
	}
	m := &PipelineRunModel{
		AggregateModel: aggregateFromDomain(r.BaseAggregateRoot),
		ProductName:    r.Brief.ProductName,
		Niche:          r.Brief.Niche,
		Status:         r.Status,
		ScheduleID:     r.ScheduleID,
		CurrentStage:   string(r.CurrentStage),
		BriefJSON:      brief,
		ErrorsJSON:     errs,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DurationMs:     millis(r.Duration),
		Stages:         make([]StageResultModel, 0, len(r.Stages)),
	}
	for i, rec := range r.Stages {
		sm, err := stageFromDomain(r.ID, i, rec)
		if err != nil {
			return nil, err
		}
		m.Stages = append(m.Stages, *sm)
	}
	return m, nil
}

func stageFromDomain(runID uuid.UUID, pos int, rec *pipeline.StageRecord) (*StageResultModel, error) {
	reasoning, err := encodeJSON(rec.Reasoning)
	if err != nil {
		return nil, err
	}
	errs, err := encodeJSON(rec.Errors)
	if err != nil {
		return nil, err
	}
	meta, err := encodeJSON(rec.Metadata)
	if err != nil {
		return nil, err
	}
	return &StageResultModel{
		RunID:         runID,
		Stage:         string(rec.Stage),
		Position:      pos,
		Status:        string(rec.Status),
		Progress:      rec.Progress,
		CurrentStep:   rec.CurrentStep,
		Confidence:    rec.Confidence,
		ReasoningJSON: reasoning,
		ErrorsJSON:    errs,
		Output:        string(rec.Output),
		MetadataJSON:  meta,
		StartedAt:     rec.StartedAt,
		FinishedAt:    rec.FinishedAt,
		DurationMs:    millis(rec.Duration),
	}, nil
}

// ToDomain rebuilds the run. Stages must be loaded and are ordered by
// position.
func (m *PipelineRunModel) ToDomain() (*pipeline.Run, error) {
	r := &pipeline.Run{
		BaseAggregateRoot: m.AggregateModel.toDomain(),
		Status:            m.Status,
		ScheduleID:        m.ScheduleID,
		CurrentStage:      pipeline.StageName(m.CurrentStage),
		StartedAt:         m.StartedAt,
		FinishedAt:        m.FinishedAt,
		Duration:          fromMillis(m.DurationMs),
		Errors:            []string{},
	}
	if err := decodeJSON("brief", m.BriefJSON, &r.Brief); err != nil {
		return nil, err
	}
	if err := decodeJSON("errors", m.ErrorsJSON, &r.Errors); err != nil {
		return nil, err
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}

	r.Stages = make([]*pipeline.StageRecord, len(m.Stages))
	for _, s := range m.Stages {
		rec, err := s.toDomain()
		if err != nil {
			return nil, err
		}
		if s.Position >= 0 && s.Position < len(r.Stages) && r.Stages[s.Position] == nil {
			r.Stages[s.Position] = rec
		}
	}
	stages := r.Stages[:0]
	for _, rec := range r.Stages {
		if rec != nil {
			stages = append(stages, rec)
		}
	}
	r.Stages = stages
	return r, nil
}

func (s StageResultModel) toDomain() (*pipeline.StageRecord, error) {
	rec := &pipeline.StageRecord{
		Stage:       pipeline.StageName(s.Stage),
		Status:      pipeline.StageStatus(s.Status),
		Progress:    s.Progress,
		CurrentStep: s.CurrentStep,
		Confidence:  s.Confidence,
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
		Duration:    fromMillis(s.DurationMs),
	}
	if s.Output != "" {
		rec.Output = json.RawMessage(s.Output)
	}
	if err := decodeJSON("reasoning", s.ReasoningJSON, &rec.Reasoning); err != nil {
		return nil, err
	}
	if err := decodeJSON("errors", s.ErrorsJSON, &rec.Errors); err != nil {
		return nil, err
	}
	if err := decodeJSON("metadata", s.MetadataJSON, &rec.Metadata); err != nil {
		return nil, err
	}
	return rec, nil
}

// ScheduleModel is the row of a generation schedule.
type ScheduleModel struct {
	AggregateModel
	Name      string `gorm:"type:varchar(100);not null"`
	CronExpr  string `gorm:"type:varchar(100);not null"`
	BriefJSON string `gorm:"column:brief;type:text;not null"`
	Enabled   bool   `gorm:"not null;index"`
	LastRunAt *time.Time
	LastRunID *uuid.UUID `gorm:"type:uuid"`
}

func (ScheduleModel) TableName() string { return "schedules" }

func ScheduleModelFromDomain(s *pipeline.Schedule) (*ScheduleModel, error) {
	brief, err := encodeJSON(s.Brief)
	if err != nil {
		return nil, err
	}
	return &ScheduleModel{
		AggregateModel: aggregateFromDomain(s.BaseAggregateRoot),
		Name:           s.Name,
		CronExpr:       s.CronExpr,
		BriefJSON:      brief,
		Enabled:        s.Enabled,
		LastRunAt:      s.LastRunAt,
		LastRunID:      s.LastRunID,
	}, nil
}

func (m *ScheduleModel) ToDomain() (*pipeline.Schedule, error) {
	s := &pipeline.Schedule{
		BaseAggregateRoot: m.AggregateModel.toDomain(),
		Name:              m.Name,
		CronExpr:          m.CronExpr,
		Enabled:           m.Enabled,
		LastRunAt:         m.LastRunAt,
		LastRunID:         m.LastRunID,
	}
	if err := decodeJSON("brief", m.BriefJSON, &s.Brief); err != nil {
		return nil, err
	}
	return s, nil
}
