package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// JobStatus represents the status of a queued job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one pipeline run waiting for a worker
type Job struct {
	ID          uuid.UUID
	RunID       uuid.UUID
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job for a run
func NewJob(runID uuid.UUID, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		RunID:      runID,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job failed and has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry resets the job to pending with a retry time
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	next := time.Now().Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
}

// JobExecutor runs a job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// Config holds worker pool settings
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns the pool defaults
func DefaultConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     100,
		JobTimeout:    30 * time.Minute,
		RetryAttempts: 1,
		RetryDelay:    30 * time.Second,
	}
}

// ConfigFrom maps application config onto the pool, keeping defaults for
// unset values.
func ConfigFrom(cfg config.SchedulerConfig) Config {
	c := DefaultConfig()
	if cfg.Workers > 0 {
		c.Workers = cfg.Workers
	}
	if cfg.QueueSize > 0 {
		c.QueueSize = cfg.QueueSize
	}
	if cfg.JobTimeout > 0 {
		c.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts >= 0 {
		c.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		c.RetryDelay = cfg.RetryDelay
	}
	return c
}

// QueueObserver receives the queue depth after every change
type QueueObserver interface {
	SetQueueDepth(n int)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithQueueObserver reports queue depth to o
func WithQueueObserver(o QueueObserver) Option {
	return func(s *Scheduler) { s.observer = o }
}

// Scheduler is a fixed worker pool over a buffered job queue
type Scheduler struct {
	config   Config
	executor JobExecutor
	logger   *zap.Logger
	observer QueueObserver

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	retries   map[uuid.UUID]*time.Timer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, executor JobExecutor, logger *zap.Logger, opts ...Option) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		config:   cfg,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, cfg.QueueSize),
		retries:  make(map[uuid.UUID]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers. Queued jobs are
// dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, t := range s.retries {
		t.Stop()
		delete(s.retries, id)
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if n := len(s.jobs); n > 0 {
			s.logger.Warn("Job scheduler stopped with queued jobs", zap.Int("dropped", n))
		} else {
			s.logger.Info("Job scheduler stopped gracefully")
		}
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether workers are accepting jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Pending returns the number of queued jobs
func (s *Scheduler) Pending() int {
	return len(s.jobs)
}

// SubmitRun queues a pipeline run with the configured retry budget
func (s *Scheduler) SubmitRun(runID uuid.UUID) error {
	return s.Submit(NewJob(runID, s.config.RetryAttempts))
}

// Submit queues a job without blocking
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		s.reportDepth()
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("run_id", job.RunID.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.reportDepth()
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("run_id", job.RunID.String()),
	)
	log.Info("Processing job", zap.Int("attempt", job.RetryCount+1))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.safeExecute(jobCtx, job)
	if err == nil {
		job.Complete()
		log.Info("Job completed successfully")
		return
	}

	job.Fail(err.Error())
	log.Error("Job failed", zap.Error(err))
	if IsPermanent(err) || !job.ShouldRetry() {
		return
	}
	job.ScheduleRetry(s.config.RetryDelay)
	log.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.config.RetryDelay),
	)
	s.requeueLater(job, s.config.RetryDelay)
}

func (s *Scheduler) safeExecute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(panicError{value: r})
		}
	}()
	return s.executor.Execute(ctx, job)
}

func (s *Scheduler) requeueLater(job *Job, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.retries[job.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.retries, job.ID)
		s.mu.Unlock()
		if err := s.Submit(job); err != nil {
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	})
}

func (s *Scheduler) reportDepth() {
	if s.observer != nil {
		s.observer.SetQueueDepth(len(s.jobs))
	}
}
