package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
)

type MockReloader struct {
	mock.Mock
}

func (m *MockReloader) Reload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newScheduleFixture(t *testing.T) (*ScheduleService, *memScheduleRepo, *MockReloader, *harness) {
	t.Helper()
	h := newHarness(t, false)
	repo := newMemScheduleRepo()
	queue := new(MockRunQueue)
	queue.On("SubmitRun", mock.Anything).Return(nil)
	runs := NewRunService(h.runs, h.articles, h.orch, h.bus, nil, WithQueue(queue))

	reloader := new(MockReloader)
	reloader.On("Reload", mock.Anything).Return(nil)
	svc := NewScheduleService(repo, runs, "", nil)
	svc.SetReloader(reloader)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC) }
	return svc, repo, reloader, h
}

func weeklyRequest() CreateScheduleRequest {
	return CreateScheduleRequest{
		Name:     "Weekly widget post",
		CronExpr: "0 9 * * 1",
		Brief:    validRequest(),
	}
}

func TestScheduleService_Create(t *testing.T) {
	svc, repo, reloader, _ := newScheduleFixture(t)

	resp, err := svc.Create(context.Background(), weeklyRequest())
	require.NoError(t, err)
	assert.True(t, resp.Enabled)
	assert.Equal(t, pipeline.PublishStatusDraft, resp.Brief.PublishStatus)
	require.NotNil(t, resp.NextRunAt)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), *resp.NextRunAt)
	reloader.AssertNumberOfCalls(t, "Reload", 1)

	_, err = repo.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
}

func TestScheduleService_CreateRejectsBadCron(t *testing.T) {
	svc, repo, reloader, _ := newScheduleFixture(t)

	req := weeklyRequest()
	req.CronExpr = "every monday"
	_, err := svc.Create(context.Background(), req)
	requireCode(t, err, "INVALID_CRON")

	all, _, _ := repo.FindAll(context.Background(), shared.Filter{})
	assert.Empty(t, all)
	reloader.AssertNotCalled(t, "Reload", mock.Anything)
}

func TestScheduleService_EnableDisable(t *testing.T) {
	svc, _, reloader, _ := newScheduleFixture(t)
	created, err := svc.Create(context.Background(), weeklyRequest())
	require.NoError(t, err)

	disabled, err := svc.Disable(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)
	assert.Nil(t, disabled.NextRunAt)

	enabled, err := svc.Enable(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, enabled.Enabled)
	assert.NotNil(t, enabled.NextRunAt)
	reloader.AssertNumberOfCalls(t, "Reload", 3)

	_, err = svc.Enable(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScheduleService_Trigger(t *testing.T) {
	svc, repo, _, h := newScheduleFixture(t)
	created, err := svc.Create(context.Background(), weeklyRequest())
	require.NoError(t, err)

	run, err := svc.Trigger(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, run.ScheduleID)
	assert.Equal(t, created.ID, *run.ScheduleID)

	stored, err := h.runs.FindByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusPending, stored.Status)

	sched, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, sched.LastRunID)
	assert.Equal(t, run.ID, *sched.LastRunID)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), *sched.LastRunAt)
}

func TestScheduleService_ListAndDelete(t *testing.T) {
	svc, _, reloader, _ := newScheduleFixture(t)
	created, err := svc.Create(context.Background(), weeklyRequest())
	require.NoError(t, err)

	page, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, created.ID, page.Items[0].ID)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), shared.ErrNotFound)
	reloader.AssertNumberOfCalls(t, "Reload", 2)
}

func TestScheduleService_ReloadFailureIsNotFatal(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)
	failing := new(MockReloader)
	failing.On("Reload", mock.Anything).Return(errBoom)
	svc.SetReloader(failing)

	_, err := svc.Create(context.Background(), weeklyRequest())
	assert.NoError(t, err)
}
