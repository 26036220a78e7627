// Package pipeline runs the seven agents against a brief and manages runs,
// schedules and the articles they produce.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/application/agent"
	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
	"github.com/seoblog/backend/internal/infrastructure/wordpress"
)

// Skip reasons recorded on skipped stages.
const (
	SkipReasonQualityCheck  = "Quality check skipped by request"
	SkipReasonPublishing    = "Publishing skipped by request"
	SkipReasonNotConfigured = "WordPress is not configured"
	SkipReasonCritical      = "Skipped after critical stage failure"
)

// ArticleRecorder counts finished articles.
type ArticleRecorder interface {
	ArticleProduced(published bool)
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithProgressHub streams live progress to hub.
func WithProgressHub(hub *ProgressHub) OrchestratorOption {
	return func(o *Orchestrator) { o.hub = hub }
}

// WithEventPublisher publishes run and article events.
func WithEventPublisher(p shared.EventPublisher) OrchestratorOption {
	return func(o *Orchestrator) { o.events = p }
}

// WithArticleRecorder counts produced articles.
func WithArticleRecorder(r ArticleRecorder) OrchestratorOption {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithPublishing tells the orchestrator whether a blog gateway is configured.
// Without it the publisher stage is skipped.
func WithPublishing(configured bool) OrchestratorOption {
	return func(o *Orchestrator) { o.publishing = configured }
}

// Orchestrator executes persisted runs stage by stage.
type Orchestrator struct {
	runs       pipeline.RunRepository
	articles   article.ArticleRepository
	roster     *agent.Roster
	executor   *agent.Executor
	hub        *ProgressHub
	events     shared.EventPublisher
	recorder   ArticleRecorder
	publishing bool
	logger     *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	runs pipeline.RunRepository,
	articles article.ArticleRepository,
	roster *agent.Roster,
	executor *agent.Executor,
	logger *zap.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		runs:     runs,
		articles: articles,
		roster:   roster,
		executor: executor,
		logger:   logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs a pending run to a terminal status. Stage failures are
// recorded on the run. Once the run has started, any other failure aborts it
// and the abort is persisted even when ctx is already cancelled.
func (o *Orchestrator) Execute(ctx context.Context, runID uuid.UUID) (err error) {
	run, err := o.runs.FindByID(ctx, runID)
	if err != nil {
		return err
	}
	if err := run.Start(); err != nil {
		return err
	}
	if err := o.save(ctx, run); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "pipeline", "run", telemetry.AttrRunID, runID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	o.logger.Info("Pipeline run started",
		zap.String("run_id", runID.String()),
		zap.String("product", run.Brief.ProductName),
	)

	state := pipeline.NewState(run.Brief)
	stageErr := o.runStages(ctx, run, state)
	if stageErr == nil && ctx.Err() == nil {
		if err := run.Finish(); err != nil {
			return err
		}
		return o.finish(ctx, run, state)
	}
	return o.abort(context.WithoutCancel(ctx), run, state, stageErr, ctx.Err())
}

func (o *Orchestrator) runStages(ctx context.Context, run *pipeline.Run, state *pipeline.State) error {
	for _, stage := range pipeline.Stages() {
		if ctx.Err() != nil {
			return nil
		}
		if reason := o.skipReason(run.Brief, stage); reason != "" {
			if err := run.SkipStage(stage, reason); err != nil {
				return err
			}
			o.publish(ProgressEvent{Type: ProgressEventStage, RunID: run.ID, Stage: stage, Progress: 100, Overall: run.Progress(), Status: "skipped", Step: reason})
			continue
		}
		if err := o.runStage(ctx, run, state, stage); err != nil {
			return err
		}
		if rec := run.Stage(stage); rec.Status == pipeline.StageStatusFailed && stage.IsCritical() {
			run.SkipRemaining(SkipReasonCritical)
			return nil
		}
	}
	return nil
}

// abort fails a started run that could not finish normally. A cancelled run
// is a recorded outcome, so only other causes are returned.
func (o *Orchestrator) abort(ctx context.Context, run *pipeline.Run, state *pipeline.State, cause, ctxErr error) error {
	reason := fmt.Sprintf("Run aborted: %v", cause)
	if ctxErr != nil {
		reason = fmt.Sprintf("Run cancelled: %v", ctxErr)
		cause = nil
	}
	o.logger.Warn("Pipeline run aborted",
		zap.String("run_id", run.ID.String()),
		zap.String("reason", reason),
	)
	if err := run.Abort(reason); err != nil {
		return errors.Join(cause, err)
	}
	if err := o.finish(ctx, run, state); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (o *Orchestrator) skipReason(b pipeline.Brief, stage pipeline.StageName) string {
	switch stage {
	case pipeline.StageQualityChecker:
		if b.SkipQualityCheck {
			return SkipReasonQualityCheck
		}
	case pipeline.StagePublisher:
		if b.SkipPublishing {
			return SkipReasonPublishing
		}
		if !o.publishing {
			return SkipReasonNotConfigured
		}
	}
	return ""
}

func (o *Orchestrator) runStage(ctx context.Context, run *pipeline.Run, state *pipeline.State, stage pipeline.StageName) error {
	a, ok := o.roster.Get(stage)
	if !ok {
		return fmt.Errorf("pipeline: no agent for stage %s", stage)
	}
	if err := run.BeginStage(stage); err != nil {
		return err
	}
	if err := o.save(ctx, run); err != nil {
		return err
	}

	resp := o.executor.Execute(ctx, a, state, &runObserver{o: o, run: run})

	outcome := pipeline.StageOutcome{
		Reasoning:  resp.Reasoning,
		Confidence: resp.Confidence,
		Metadata:   resp.Metadata,
		Errors:     resp.Errors,
		Duration:   resp.ProcessingTime,
	}
	if resp.Success {
		if err := state.Apply(stage, resp.Artifact); err != nil {
			resp.Success = false
			outcome.Errors = []string{err.Error()}
		} else {
			raw, err := json.Marshal(resp.Artifact)
			if err != nil {
				return fmt.Errorf("pipeline: encode %s output: %w", stage, err)
			}
			outcome.Output = raw
		}
	}
	if resp.Success {
		err := run.CompleteStage(stage, outcome)
		if err != nil {
			return err
		}
	} else if err := run.FailStage(stage, outcome); err != nil {
		return err
	}
	return o.save(ctx, run)
}

// finish saves the terminal run, builds its article and notifies listeners.
func (o *Orchestrator) finish(ctx context.Context, run *pipeline.Run, state *pipeline.State) error {
	if err := o.save(ctx, run); err != nil {
		return err
	}
	if state.ContentDraft != nil {
		if err := o.storeArticle(ctx, run, state); err != nil {
			o.logger.Error("Failed to store article",
				zap.String("run_id", run.ID.String()),
				zap.Error(err),
			)
		}
	}
	if o.hub != nil {
		o.hub.Finish(ProgressEvent{RunID: run.ID, Progress: 100, Overall: run.Progress(), Status: string(run.Status)})
	}
	o.logger.Info("Pipeline run finished",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("agents_completed", run.AgentsCompleted()),
		zap.Duration("duration", run.Duration),
	)
	return nil
}

func (o *Orchestrator) storeArticle(ctx context.Context, run *pipeline.Run, state *pipeline.State) error {
	a, err := BuildArticle(run, state)
	if err != nil {
		return err
	}
	if existing, err := o.articles.FindByRunID(ctx, run.ID); err == nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if err := o.articles.Save(ctx, a); err != nil {
		return err
	}
	if o.recorder != nil {
		o.recorder.ArticleProduced(a.IsPublished())
	}
	o.emit(ctx, a.PullDomainEvents())
	return nil
}

// BuildArticle turns the artifacts of a run into an article. The HTML and
// taxonomy come from the publisher when it ran, otherwise they are derived
// locally.
func BuildArticle(run *pipeline.Run, state *pipeline.State) (*article.Article, error) {
	draft := state.ContentDraft
	if draft == nil {
		return nil, fmt.Errorf("%w: content draft", agent.ErrMissingInput)
	}
	var metaTitle, metaDesc string
	if seo := state.SEOOptimization; seo != nil {
		metaTitle = seo.MetaTags.FirstTitle()
		metaDesc = seo.MetaTags.FirstDescription()
	}
	keywords := state.KeywordAnalysis.PrimaryTerms(5)
	if len(keywords) == 0 {
		keywords = run.Brief.TargetKeywords
	}
	a, err := article.NewArticleFromDraft(article.Draft{
		RunID:           run.ID,
		Markdown:        draft.CompleteArticle,
		MetaTitle:       metaTitle,
		MetaDescription: metaDesc,
		Keywords:        keywords,
	})
	if err != nil {
		return nil, err
	}

	if pub := state.Publication; pub != nil {
		a.Render(pub.HTML, pub.Categories, pub.Tags)
		if pub.Excerpt != "" {
			a.Excerpt = pub.Excerpt
		}
	} else {
		html, err := wordpress.Render(draft.CompleteArticle, run.Brief.ProductName)
		if err != nil {
			return nil, err
		}
		a.Render(html, agent.DetectCategories(draft.CompleteArticle), agent.BuildTags(draft.CompleteArticle, a.Keywords))
	}

	if q := state.QualityReport; q != nil {
		a.Grade(q.OverallScore, q.Grade)
	} else {
		a.Grade(draft.QualityScore, "")
	}

	if pub := state.Publication; pub != nil && pub.PostID > 0 {
		at := pub.PublishedAt
		if err := a.MarkPublished(article.Publication{
			PostID:      pub.PostID,
			PostURL:     pub.PostURL,
			EditURL:     pub.EditURL,
			Status:      pub.Status,
			PublishedAt: &at,
		}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (o *Orchestrator) save(ctx context.Context, run *pipeline.Run) error {
	if err := o.runs.Save(ctx, run); err != nil {
		return fmt.Errorf("pipeline: save run %s: %w", run.ID, err)
	}
	o.emit(ctx, run.PullDomainEvents())
	return nil
}

func (o *Orchestrator) emit(ctx context.Context, events []shared.DomainEvent) {
	if o.events == nil || len(events) == 0 {
		return
	}
	if err := o.events.Publish(ctx, events...); err != nil {
		o.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func (o *Orchestrator) publish(ev ProgressEvent) {
	if o.hub != nil {
		o.hub.Publish(ev)
	}
}

// runObserver feeds agent progress into the run and the progress hub.
type runObserver struct {
	o   *Orchestrator
	run *pipeline.Run
}

func (r *runObserver) Progress(stage pipeline.StageName, progress int, status, step string) {
	r.run.ReportProgress(stage, progress, step)
	r.o.publish(ProgressEvent{
		Type:     ProgressEventStage,
		RunID:    r.run.ID,
		Stage:    stage,
		Progress: progress,
		Overall:  r.run.Progress(),
		Status:   status,
		Step:     step,
	})
}

func (r *runObserver) Event(stage pipeline.StageName, eventType string, data map[string]any) {
	r.o.publish(ProgressEvent{
		Type:    ProgressEventAgent,
		RunID:   r.run.ID,
		Stage:   stage,
		Overall: r.run.Progress(),
		Status:  eventType,
		Data:    data,
	})
}
