package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/application/agent"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/persistence"
	"github.com/seoblog/backend/tests/testutil"
)

// cancellingAgent cancels the run context while its stage is in flight.
type cancellingAgent struct {
	stage  pipeline.StageName
	cancel context.CancelFunc
}

func (c *cancellingAgent) Stage() pipeline.StageName { return c.stage }

func (c *cancellingAgent) Config() agent.Config {
	cfg := agent.DefaultConfig("cancelling "+string(c.stage), "")
	cfg.MaxRetries = 1
	return cfg
}

func (c *cancellingAgent) Process(ctx context.Context, _ *pipeline.State, _ agent.ProgressFunc) (*agent.Result, error) {
	c.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingRunRepo fails every save after the first n.
type failingRunRepo struct {
	pipeline.RunRepository
	saves int
	after int
	err   error
}

func (r *failingRunRepo) Save(ctx context.Context, run *pipeline.Run) error {
	r.saves++
	if r.saves > r.after && r.err != nil {
		err := r.err
		r.err = nil
		return err
	}
	return r.RunRepository.Save(ctx, run)
}

func newGormHarness(t *testing.T) (*persistence.GormRunRepository, *persistence.GormArticleRepository, *agent.Roster) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	h := newHarness(t, false)
	return persistence.NewGormRunRepository(db.DB), persistence.NewGormArticleRepository(db.DB), h.roster
}

func TestOrchestrator_CancelMidStagePersistsAbort(t *testing.T) {
	runs, articles, roster := newGormHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	roster.Replace(&cancellingAgent{stage: pipeline.StageMarketResearch, cancel: cancel})

	hub := NewProgressHub(zap.NewNop())
	orch := NewOrchestrator(runs, articles, roster, agent.NewExecutor(zap.NewNop()), zap.NewNop(), WithProgressHub(hub))

	run := testutil.NewRun(t)
	require.NoError(t, runs.Save(context.Background(), run))
	events, unsubscribe := hub.Subscribe(run.ID)
	defer unsubscribe()

	require.NoError(t, orch.Execute(ctx, run.ID))

	got, err := runs.FindByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusFailed, got.Status)
	assert.True(t, got.CanDelete())
	assert.NotNil(t, got.FinishedAt)
	assert.Contains(t, got.Errors[len(got.Errors)-1], "Run cancelled")
	for _, rec := range got.Stages {
		assert.True(t, rec.Status.IsTerminal(), "stage %s is %s", rec.Stage, rec.Status)
	}
	assert.Equal(t, pipeline.StageStatusFailed, got.Stage(pipeline.StageMarketResearch).Status)

	var last ProgressEvent
	for ev := range events {
		last = ev
	}
	assert.Equal(t, ProgressEventFinished, last.Type)
	assert.Equal(t, string(pipeline.RunStatusFailed), last.Status)

	err = orch.Execute(context.Background(), run.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	svc := NewRunService(runs, articles, orch, nil, zap.NewNop())
	retried, err := svc.Retry(context.Background(), run.ID)
	require.NoError(t, err)
	assert.NotEqual(t, run.ID, retried.ID)
	assert.NoError(t, svc.Delete(context.Background(), run.ID))
}

func TestOrchestrator_StageSaveFailureAbortsRun(t *testing.T) {
	gormRuns, articles, roster := newGormHarness(t)
	errDisk := errors.New("disk full")
	// the pending insert and the start succeed, the first stage boundary fails
	runs := &failingRunRepo{RunRepository: gormRuns, after: 2, err: errDisk}
	orch := NewOrchestrator(runs, articles, roster, agent.NewExecutor(zap.NewNop()), zap.NewNop())

	run := testutil.NewRun(t)
	require.NoError(t, runs.Save(context.Background(), run))

	err := orch.Execute(context.Background(), run.ID)
	assert.ErrorIs(t, err, errDisk)

	got, err := gormRuns.FindByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusFailed, got.Status)
	assert.Contains(t, got.Errors[len(got.Errors)-1], "disk full")
	for _, rec := range got.Stages {
		assert.True(t, rec.Status.IsTerminal(), "stage %s is %s", rec.Stage, rec.Status)
	}
}
