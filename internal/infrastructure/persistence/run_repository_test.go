package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
)

func TestGormRunRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRunRepository(newSQLiteDB(t).DB)

	run := newRun(t, "FlexBell")
	require.NoError(t, repo.Save(ctx, run))

	require.NoError(t, run.Start())
	require.NoError(t, run.BeginStage(pipeline.StageMarketResearch))
	require.NoError(t, run.CompleteStage(pipeline.StageMarketResearch, pipeline.StageOutcome{
		Output:     json.RawMessage(`{"summary":"growing market"}`),
		Reasoning:  []string{"checked trends"},
		Confidence: 82,
		Metadata:   map[string]any{"sources": float64(3)},
		Duration:   1500 * time.Millisecond,
	}))
	require.NoError(t, run.BeginStage(pipeline.StageKeywordAnalyzer))
	require.NoError(t, run.FailStage(pipeline.StageKeywordAnalyzer, pipeline.StageOutcome{Errors: []string{"quota"}}))
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunStatusRunning, got.Status)
	assert.Equal(t, "FlexBell", got.Brief.ProductName)
	assert.True(t, got.Brief.Budget.Equal(pipeline.DefaultBudget))
	assert.Equal(t, run.Errors, got.Errors)
	require.Len(t, got.Stages, len(pipeline.Stages()))

	for i, name := range pipeline.Stages() {
		assert.Equal(t, name, got.Stages[i].Stage)
	}
	mr := got.Stage(pipeline.StageMarketResearch)
	assert.Equal(t, pipeline.StageStatusSucceeded, mr.Status)
	assert.Equal(t, 82, mr.Confidence)
	assert.JSONEq(t, `{"summary":"growing market"}`, string(mr.Output))
	assert.Equal(t, []string{"checked trends"}, mr.Reasoning)
	assert.Equal(t, float64(3), mr.Metadata["sources"])
	assert.Equal(t, 1500*time.Millisecond, mr.Duration)
	assert.Equal(t, pipeline.StageStatusFailed, got.Stage(pipeline.StageKeywordAnalyzer).Status)
}

func TestGormRunRepository_RejectsStaleWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRunRepository(newSQLiteDB(t).DB)

	run := newRun(t, "FlexBell")
	require.NoError(t, repo.Save(ctx, run))

	stale := *run
	require.NoError(t, run.Start())
	require.NoError(t, repo.Save(ctx, run))

	err := repo.Save(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormRunRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRunRepository(newSQLiteDB(t).DB)

	for _, name := range []string{"Alpha Mat", "Beta Band", "Gamma Roller"} {
		run := newRun(t, name)
		if name == "Beta Band" {
			require.NoError(t, run.Start())
		}
		require.NoError(t, repo.Save(ctx, run))
	}

	all, total, err := repo.FindAll(ctx, shared.Filter{PageSize: 2}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)
	assert.Len(t, all[0].Stages, len(pipeline.Stages()))

	running, total, err := repo.FindAll(ctx, shared.Filter{}, pipeline.RunStatusRunning)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Beta Band", running[0].Brief.ProductName)

	searched, _, err := repo.FindAll(ctx, shared.Filter{Search: "ROLLER"}, "")
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Gamma Roller", searched[0].Brief.ProductName)

	pending, err := repo.FindByStatus(ctx, pipeline.RunStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestGormRunRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormRunRepository(db.DB)

	run := newRun(t, "FlexBell")
	require.NoError(t, repo.Save(ctx, run))
	require.NoError(t, repo.Delete(ctx, run.ID))

	_, err := repo.FindByID(ctx, run.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var stages int64
	require.NoError(t, db.DB.Table("stage_results").Where("run_id = ?", run.ID).Count(&stages).Error)
	assert.Zero(t, stages)

	assert.ErrorIs(t, repo.Delete(ctx, run.ID), shared.ErrNotFound)
}

func TestGormRunRepository_FindByID_Postgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	repo := NewGormRunRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "pipeline_runs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
