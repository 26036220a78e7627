package pipeline

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/shared"
)

// AggregateTypeSchedule is the aggregate type of generation schedules.
const AggregateTypeSchedule = "Schedule"

// Schedule runs the pipeline for a brief on a cron expression.
type Schedule struct {
	shared.BaseAggregateRoot
	Name      string     `json:"name"`
	CronExpr  string     `json:"cron_expr"`
	Brief     Brief      `json:"brief"`
	Enabled   bool       `json:"enabled"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`
}

// NewSchedule creates an enabled schedule. The cron expression must already
// be parseable; only its presence is checked here.
func NewSchedule(name, cronExpr string, brief Brief) (*Schedule, error) {
	name = strings.TrimSpace(name)
	cronExpr = strings.TrimSpace(cronExpr)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Schedule name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Schedule name cannot exceed 100 characters")
	}
	if cronExpr == "" {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Cron expression is required")
	}
	b, err := NewBrief(brief)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CronExpr:          cronExpr,
		Brief:             b,
		Enabled:           true,
	}, nil
}

func (s *Schedule) Enable() {
	if s.Enabled {
		return
	}
	s.Enabled = true
	s.IncrementVersion()
}

func (s *Schedule) Disable() {
	if !s.Enabled {
		return
	}
	s.Enabled = false
	s.IncrementVersion()
}

// MarkTriggered records the run a firing created.
func (s *Schedule) MarkTriggered(runID uuid.UUID, at time.Time) {
	s.LastRunAt = &at
	s.LastRunID = &runID
	s.IncrementVersion()
}
