package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/scheduler"
)

// ScheduleReloader re-reads schedules after they change.
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// ScheduledRunCreator starts runs on behalf of schedules.
type ScheduledRunCreator interface {
	CreateScheduled(ctx context.Context, brief pipeline.Brief, scheduleID uuid.UUID) (*pipeline.Run, error)
}

// ScheduleService manages recurring generations
type ScheduleService struct {
	repo          pipeline.ScheduleRepository
	runs          ScheduledRunCreator
	reloader      ScheduleReloader
	defaultStatus string
	now           func() time.Time
	logger        *zap.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(repo pipeline.ScheduleRepository, runs ScheduledRunCreator, defaultStatus string, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultStatus == "" {
		defaultStatus = string(pipeline.PublishStatusDraft)
	}
	return &ScheduleService{
		repo:          repo,
		runs:          runs,
		defaultStatus: defaultStatus,
		now:           time.Now,
		logger:        logger,
	}
}

// SetReloader wires the cron trigger once it exists; the trigger itself
// depends on this service.
func (s *ScheduleService) SetReloader(r ScheduleReloader) {
	s.reloader = r
}

// Create validates the cron expression and brief and stores an enabled schedule
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*ScheduleResponse, error) {
	if _, err := scheduler.ParseCron(req.CronExpr); err != nil {
		return nil, shared.NewDomainError("INVALID_CRON", err.Error())
	}
	sched, err := pipeline.NewSchedule(req.Name, req.CronExpr, req.Brief.ToBrief(s.defaultStatus))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sched); err != nil {
		return nil, err
	}
	s.reload(ctx)
	s.logger.Info("Schedule created",
		zap.String("schedule_id", sched.ID.String()),
		zap.String("cron", sched.CronExpr),
	)
	return s.toResponse(sched), nil
}

// Get returns one schedule
func (s *ScheduleService) Get(ctx context.Context, id uuid.UUID) (*ScheduleResponse, error) {
	sched, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(sched), nil
}

// List returns a page of schedules
func (s *ScheduleService) List(ctx context.Context, page, pageSize int) (shared.Paginated[ScheduleResponse], error) {
	filter := shared.Filter{Page: page, PageSize: pageSize}.Normalize()
	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ScheduleResponse]{}, err
	}
	out := make([]ScheduleResponse, len(items))
	for i := range items {
		out[i] = *s.toResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// Enable turns a schedule on
func (s *ScheduleService) Enable(ctx context.Context, id uuid.UUID) (*ScheduleResponse, error) {
	return s.update(ctx, id, (*pipeline.Schedule).Enable)
}

// Disable turns a schedule off
func (s *ScheduleService) Disable(ctx context.Context, id uuid.UUID) (*ScheduleResponse, error) {
	return s.update(ctx, id, (*pipeline.Schedule).Disable)
}

func (s *ScheduleService) update(ctx context.Context, id uuid.UUID, change func(*pipeline.Schedule)) (*ScheduleResponse, error) {
	sched, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	change(sched)
	if err := s.repo.Save(ctx, sched); err != nil {
		return nil, err
	}
	s.reload(ctx)
	return s.toResponse(sched), nil
}

// Delete removes a schedule
func (s *ScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.reload(ctx)
	return nil
}

// Trigger starts a run for the schedule now. Cron firings land here too.
func (s *ScheduleService) Trigger(ctx context.Context, id uuid.UUID) (*pipeline.Run, error) {
	sched, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	run, err := s.runs.CreateScheduled(ctx, sched.Brief, sched.ID)
	if err != nil {
		return nil, err
	}
	sched.MarkTriggered(run.ID, s.now().UTC())
	if err := s.repo.Save(ctx, sched); err != nil {
		s.logger.Warn("Failed to record schedule trigger",
			zap.String("schedule_id", id.String()),
			zap.Error(err),
		)
	}
	return run, nil
}

func (s *ScheduleService) reload(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Warn("Failed to reload cron schedules", zap.Error(err))
	}
}

func (s *ScheduleService) toResponse(sched *pipeline.Schedule) *ScheduleResponse {
	resp := &ScheduleResponse{
		ID:        sched.ID,
		Name:      sched.Name,
		CronExpr:  sched.CronExpr,
		Brief:     sched.Brief,
		Enabled:   sched.Enabled,
		LastRunAt: sched.LastRunAt,
		LastRunID: sched.LastRunID,
		CreatedAt: sched.CreatedAt,
		UpdatedAt: sched.UpdatedAt,
	}
	if sched.Enabled {
		if cs, err := scheduler.ParseCron(sched.CronExpr); err == nil {
			next := cs.Next(s.now().UTC())
			resp.NextRunAt = &next
		}
	}
	return resp
}
