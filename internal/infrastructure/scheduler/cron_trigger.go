package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/pipeline"
)

// ScheduleTrigger starts a run for a schedule.
type ScheduleTrigger interface {
	Trigger(ctx context.Context, scheduleID uuid.UUID) (*pipeline.Run, error)
}

// TriggerRecorder counts cron firings by outcome.
type TriggerRecorder interface {
	ScheduleTriggered(outcome string)
}

// ParseCron validates a five-field cron expression or descriptor
// such as "@daily".
func ParseCron(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCron, err)
	}
	return s, nil
}

// CronTriggerConfig holds cron trigger settings
type CronTriggerConfig struct {
	Location       *time.Location
	TriggerTimeout time.Duration
}

// DefaultCronTriggerConfig returns UTC with a 30s trigger timeout
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Location:       time.UTC,
		TriggerTimeout: 30 * time.Second,
	}
}

// EntryInfo describes one registered schedule.
type EntryInfo struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	Next       time.Time `json:"next"`
	Prev       time.Time `json:"prev"`
}

// CronTrigger fires enabled schedules on their cron expressions.
type CronTrigger struct {
	config   CronTriggerConfig
	repo     pipeline.ScheduleRepository
	trigger  ScheduleTrigger
	recorder TriggerRecorder
	logger   *zap.Logger

	cron      *cron.Cron
	baseCtx   context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	entries   map[uuid.UUID]cron.EntryID
	isRunning bool
}

// NewCronTrigger creates a new cron trigger. recorder may be nil.
func NewCronTrigger(
	cfg CronTriggerConfig,
	repo pipeline.ScheduleRepository,
	trigger ScheduleTrigger,
	recorder TriggerRecorder,
	logger *zap.Logger,
) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 30 * time.Second
	}
	c := &CronTrigger{
		config:   cfg,
		repo:     repo,
		trigger:  trigger,
		recorder: recorder,
		logger:   logger,
		entries:  make(map[uuid.UUID]cron.EntryID),
	}
	cl := cronLogger{logger: logger.Sugar()}
	c.cron = cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return c
}

// Start registers every enabled schedule and starts the cron loop.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.baseCtx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.isRunning = true
	c.mu.Unlock()

	if err := c.Reload(ctx); err != nil {
		c.mu.Lock()
		c.isRunning = false
		c.cancel()
		c.mu.Unlock()
		return err
	}
	c.cron.Start()
	c.logger.Info("Cron trigger started", zap.Int("schedules", c.Len()))
	return nil
}

// Stop halts the cron loop and waits for in-flight firings.
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	stopped := c.cron.Stop()
	defer c.cancel()
	select {
	case <-stopped.Done():
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload replaces the registered entries with the enabled schedules.
func (c *CronTrigger) Reload(ctx context.Context) error {
	schedules, err := c.repo.FindEnabled(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: load schedules: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entryID := range c.entries {
		c.cron.Remove(entryID)
		delete(c.entries, id)
	}
	for i := range schedules {
		s := schedules[i]
		if err := c.addLocked(s.ID, s.CronExpr); err != nil {
			c.logger.Warn("Skipping schedule with invalid cron expression",
				zap.String("schedule_id", s.ID.String()),
				zap.String("cron", s.CronExpr),
				zap.Error(err),
			)
		}
	}
	c.logger.Debug("Cron schedules loaded", zap.Int("count", len(c.entries)))
	return nil
}

// Len returns the number of registered schedules.
func (c *CronTrigger) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries lists registered schedules with their next firing time.
func (c *CronTrigger) Entries() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EntryInfo, 0, len(c.entries))
	for id, entryID := range c.entries {
		e := c.cron.Entry(entryID)
		out = append(out, EntryInfo{ScheduleID: id, Next: e.Next, Prev: e.Prev})
	}
	return out
}

func (c *CronTrigger) addLocked(id uuid.UUID, expr string) error {
	sched, err := ParseCron(expr)
	if err != nil {
		return err
	}
	c.entries[id] = c.cron.Schedule(sched, cron.FuncJob(func() { c.fire(id) }))
	return nil
}

func (c *CronTrigger) fire(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(c.baseCtx, c.config.TriggerTimeout)
	defer cancel()

	run, err := c.trigger.Trigger(ctx, id)
	if err != nil {
		c.record("error")
		c.logger.Error("Scheduled run trigger failed",
			zap.String("schedule_id", id.String()),
			zap.Error(err),
		)
		return
	}
	c.record("submitted")
	c.logger.Info("Scheduled run triggered",
		zap.String("schedule_id", id.String()),
		zap.String("run_id", run.ID.String()),
	)
}

func (c *CronTrigger) record(outcome string) {
	if c.recorder != nil {
		c.recorder.ScheduleTriggered(outcome)
	}
}

// cronLogger routes robfig/cron logs through zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
