package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/config"
)

type funcExecutor func(ctx context.Context, job *Job) error

func (f funcExecutor) Execute(ctx context.Context, job *Job) error { return f(ctx, job) }

type depthRecorder struct {
	mu    sync.Mutex
	depth []int
}

func (d *depthRecorder) SetQueueDepth(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depth = append(d.depth, n)
}

func testConfig() Config {
	return Config{Workers: 2, QueueSize: 4, JobTimeout: time.Second, RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(uuid.New(), 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	job.Fail("again")
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestConfigFrom(t *testing.T) {
	c := ConfigFrom(config.SchedulerConfig{Workers: 5, QueueSize: 0, RetryAttempts: 0})
	assert.Equal(t, 5, c.Workers)
	assert.Equal(t, DefaultConfig().QueueSize, c.QueueSize)
	assert.Equal(t, 0, c.RetryAttempts)
	assert.Equal(t, DefaultConfig().JobTimeout, c.JobTimeout)
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s := NewScheduler(testConfig(), funcExecutor(func(context.Context, *Job) error { return nil }), zap.NewNop())
	assert.ErrorIs(t, s.SubmitRun(uuid.New()), ErrSchedulerNotRunning)
}

func TestScheduler_ExecutesJobs(t *testing.T) {
	var done sync.WaitGroup
	var seen sync.Map
	exec := funcExecutor(func(_ context.Context, job *Job) error {
		seen.Store(job.RunID, true)
		done.Done()
		return nil
	})
	rec := &depthRecorder{}
	s := NewScheduler(testConfig(), exec, zap.NewNop(), WithQueueObserver(rec))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	done.Add(len(ids))
	for _, id := range ids {
		require.NoError(t, s.SubmitRun(id))
	}
	waitGroup(t, &done)

	for _, id := range ids {
		_, ok := seen.Load(id)
		assert.True(t, ok)
	}
	rec.mu.Lock()
	assert.NotEmpty(t, rec.depth)
	rec.mu.Unlock()
}

func TestScheduler_QueueFull(t *testing.T) {
	block := make(chan struct{})
	exec := funcExecutor(func(ctx context.Context, _ *Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})
	cfg := testConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	s := NewScheduler(cfg, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		close(block)
		_ = s.Stop(context.Background())
	})

	require.NoError(t, s.SubmitRun(uuid.New()))
	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.SubmitRun(uuid.New()))
	assert.ErrorIs(t, s.SubmitRun(uuid.New()), ErrJobQueueFull)
}

func TestScheduler_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	var done sync.WaitGroup
	done.Add(1)
	exec := funcExecutor(func(context.Context, *Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("database unavailable")
		}
		done.Done()
		return nil
	})
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	require.NoError(t, s.SubmitRun(uuid.New()))
	waitGroup(t, &done)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestScheduler_PermanentFailureAndPanicAreNotRetried(t *testing.T) {
	var attempts atomic.Int32
	exec := funcExecutor(func(_ context.Context, job *Job) error {
		attempts.Add(1)
		if job.MaxRetries == 99 {
			panic("agent exploded")
		}
		return Permanent(errors.New("bad run"))
	})
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	require.NoError(t, s.SubmitRun(uuid.New()))
	require.NoError(t, s.Submit(NewJob(uuid.New(), 99)))

	require.Eventually(t, func() bool { return attempts.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestScheduler_StopCancelsJobs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	started := make(chan struct{})
	exec := funcExecutor(func(ctx context.Context, _ *Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.SubmitRun(uuid.New()))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.SubmitRun(uuid.New()), ErrSchedulerNotRunning)
}

type runnerFunc func(ctx context.Context, id uuid.UUID) error

func (f runnerFunc) Execute(ctx context.Context, id uuid.UUID) error { return f(ctx, id) }

func TestRunExecutor_ClassifiesErrors(t *testing.T) {
	job := NewJob(uuid.New(), 3)

	exec := NewRunExecutor(runnerFunc(func(context.Context, uuid.UUID) error { return nil }), nil)
	assert.NoError(t, exec.Execute(context.Background(), job))

	exec = NewRunExecutor(runnerFunc(func(context.Context, uuid.UUID) error { return shared.ErrNotFound }), nil)
	err := exec.Execute(context.Background(), job)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exec = NewRunExecutor(runnerFunc(func(context.Context, uuid.UUID) error {
		return shared.NewDomainError("INVALID_STATE", "Cannot start run in RUNNING status")
	}), nil)
	assert.True(t, IsPermanent(exec.Execute(context.Background(), job)))

	exec = NewRunExecutor(runnerFunc(func(context.Context, uuid.UUID) error { return errors.New("timeout") }), nil)
	err = exec.Execute(context.Background(), job)
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func waitGroup(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}
}
