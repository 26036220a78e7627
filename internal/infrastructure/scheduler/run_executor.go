package scheduler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/shared"
)

// RunRunner executes a persisted pipeline run to completion.
type RunRunner interface {
	Execute(ctx context.Context, runID uuid.UUID) error
}

// RunExecutor adapts a RunRunner to the worker pool.
type RunExecutor struct {
	runner RunRunner
	logger *zap.Logger
}

// NewRunExecutor creates a RunExecutor.
func NewRunExecutor(runner RunRunner, logger *zap.Logger) *RunExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunExecutor{runner: runner, logger: logger}
}

// Execute runs the job's pipeline run. A missing run or one that already
// left PENDING will not be retried.
func (e *RunExecutor) Execute(ctx context.Context, job *Job) error {
	err := e.runner.Execute(ctx, job.RunID)
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidState) {
		e.logger.Warn("Run cannot be executed",
			zap.String("run_id", job.RunID.String()),
			zap.Error(err),
		)
		return Permanent(err)
	}
	return err
}
