package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/shared"
)

// RunRepository persists pipeline runs with their stage records.
type RunRepository interface {
	// Save inserts or updates a run and its stage records
	Save(ctx context.Context, run *Run) error
	// FindByID returns shared.ErrNotFound if the run does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Run, error)
	// FindAll lists runs, optionally filtered by status (empty means all)
	FindAll(ctx context.Context, filter shared.Filter, status RunStatus) ([]Run, int64, error)
	// FindByStatus returns every run in a status, oldest first
	FindByStatus(ctx context.Context, status RunStatus) ([]Run, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleRepository persists generation schedules.
type ScheduleRepository interface {
	Save(ctx context.Context, schedule *Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Schedule, int64, error)
	FindEnabled(ctx context.Context) ([]Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
