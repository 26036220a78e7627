package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/storage"
)

// RunArchiver writes the results document and article HTML of finished
// runs to archive storage.
type RunArchiver struct {
	runs     pipeline.RunRepository
	articles article.ArticleRepository
	archive  storage.ArchiveStorage
	now      func() time.Time
	logger   *zap.Logger
}

// NewRunArchiver creates a RunArchiver.
func NewRunArchiver(runs pipeline.RunRepository, articles article.ArticleRepository, archive storage.ArchiveStorage, logger *zap.Logger) *RunArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunArchiver{runs: runs, articles: articles, archive: archive, now: time.Now, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *RunArchiver) EventTypes() []string {
	return []string{pipeline.EventTypeRunFinished}
}

// Handle archives the run named by a RunFinished event.
func (h *RunArchiver) Handle(ctx context.Context, event shared.DomainEvent) error {
	if _, ok := event.(*pipeline.RunFinishedEvent); !ok {
		return fmt.Errorf("run archiver: unexpected event %T", event)
	}
	run, err := h.runs.FindByID(ctx, event.AggregateID())
	if err != nil {
		return err
	}
	if run.FinishedAt == nil {
		return nil
	}
	a, err := h.articles.FindByRunID(ctx, run.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if a != nil && a.HTML != "" {
		if err := h.archive.Put(ctx, storage.ArticleKey(run.ID), []byte(a.HTML), "text/html; charset=utf-8"); err != nil {
			return fmt.Errorf("run archiver: article: %w", err)
		}
	}

	data, err := ResultsJSON(NewResultsDocument(run, a, h.now().UTC()))
	if err != nil {
		return err
	}
	key := storage.ResultsKey(run.ID, *run.FinishedAt)
	if err := h.archive.Put(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("run archiver: results: %w", err)
	}
	h.logger.Info("Run results archived",
		zap.String("run_id", run.ID.String()),
		zap.String("key", key),
	)
	return nil
}

// MetricsRecorder is the subset of telemetry metrics the recorder drives.
type MetricsRecorder interface {
	RunStarted()
	RunFinished(status string)
	StageObserved(stage, status string, d time.Duration)
}

// RunMetricsRecorder turns run events into metrics.
type RunMetricsRecorder struct {
	metrics MetricsRecorder
}

// NewRunMetricsRecorder creates a RunMetricsRecorder.
func NewRunMetricsRecorder(m MetricsRecorder) *RunMetricsRecorder {
	return &RunMetricsRecorder{metrics: m}
}

// EventTypes returns the event types this handler is interested in
func (h *RunMetricsRecorder) EventTypes() []string {
	return []string{
		pipeline.EventTypeRunStarted,
		pipeline.EventTypeStageCompleted,
		pipeline.EventTypeStageFailed,
		pipeline.EventTypeRunFinished,
	}
}

// Handle records one run event.
func (h *RunMetricsRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *pipeline.RunStartedEvent:
		h.metrics.RunStarted()
	case *pipeline.StageCompletedEvent:
		h.metrics.StageObserved(string(e.Stage), "succeeded", e.Duration)
	case *pipeline.StageFailedEvent:
		h.metrics.StageObserved(string(e.Stage), "failed", e.Duration)
	case *pipeline.RunFinishedEvent:
		h.metrics.RunFinished(string(e.Status))
	}
	return nil
}
