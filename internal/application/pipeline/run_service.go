package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/application/agent"
	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/storage"
)

// RunQueue hands runs to background workers.
type RunQueue interface {
	SubmitRun(runID uuid.UUID) error
}

// Runner executes a stored run to completion.
type Runner interface {
	Execute(ctx context.Context, runID uuid.UUID) error
}

// RunServiceOption configures a RunService.
type RunServiceOption func(*RunService)

// WithQueue executes new runs in the background. Without a queue, Create
// blocks until the run finishes.
func WithQueue(q RunQueue) RunServiceOption {
	return func(s *RunService) { s.queue = q }
}

// WithGateway enables manual publishing.
func WithGateway(gw article.Gateway) RunServiceOption {
	return func(s *RunService) { s.gateway = gw }
}

// WithArchive serves archived result documents.
func WithArchive(a storage.ArchiveStorage) RunServiceOption {
	return func(s *RunService) { s.archive = a }
}

// WithDefaultPublishStatus sets the status used when a brief names none.
func WithDefaultPublishStatus(status string) RunServiceOption {
	return func(s *RunService) { s.defaultStatus = status }
}

// RunService handles pipeline runs and the articles they produce
type RunService struct {
	runs          pipeline.RunRepository
	articles      article.ArticleRepository
	runner        Runner
	queue         RunQueue
	gateway       article.Gateway
	archive       storage.ArchiveStorage
	events        shared.EventPublisher
	defaultStatus string
	now           func() time.Time
	logger        *zap.Logger
}

// NewRunService creates a new RunService
func NewRunService(
	runs pipeline.RunRepository,
	articles article.ArticleRepository,
	runner Runner,
	events shared.EventPublisher,
	logger *zap.Logger,
	opts ...RunServiceOption,
) *RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RunService{
		runs:          runs,
		articles:      articles,
		runner:        runner,
		events:        events,
		defaultStatus: string(pipeline.PublishStatusDraft),
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the brief, stores a pending run and starts it.
func (s *RunService) Create(ctx context.Context, req CreateRunRequest) (*RunResponse, error) {
	run, err := pipeline.NewRun(req.ToBrief(s.defaultStatus))
	if err != nil {
		return nil, err
	}
	return s.start(ctx, run)
}

// CreateScheduled stores and starts a run for a schedule.
func (s *RunService) CreateScheduled(ctx context.Context, brief pipeline.Brief, scheduleID uuid.UUID) (*pipeline.Run, error) {
	run, err := pipeline.NewScheduledRun(brief, scheduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.start(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *RunService) start(ctx context.Context, run *pipeline.Run) (*RunResponse, error) {
	if err := s.runs.Save(ctx, run); err != nil {
		return nil, err
	}
	s.logger.Info("Pipeline run created",
		zap.String("run_id", run.ID.String()),
		zap.String("product", run.Brief.ProductName),
	)

	if s.queue != nil {
		if err := s.queue.SubmitRun(run.ID); err != nil {
			// a run nobody will pick up must not stay pending
			if aerr := s.abandon(ctx, run, "Run could not be queued: "+err.Error()); aerr != nil {
				s.logger.Error("Failed to mark unqueued run", zap.Error(aerr))
			}
			return nil, fmt.Errorf("queue run: %w", err)
		}
		resp := ToRunResponse(run, false)
		return &resp, nil
	}

	if err := s.runner.Execute(ctx, run.ID); err != nil {
		return nil, err
	}
	done, err := s.runs.FindByID(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	resp := ToRunResponse(done, true)
	return &resp, nil
}

// abandon fails a pending run that will never be executed.
func (s *RunService) abandon(ctx context.Context, run *pipeline.Run, reason string) error {
	if err := run.Start(); err != nil {
		return err
	}
	if err := run.Abort(reason); err != nil {
		return err
	}
	run.ClearDomainEvents()
	return s.runs.Save(ctx, run)
}

// RecoverInterrupted settles runs a previous process left unfinished. Running
// runs are failed. Pending runs are queued again, or failed when there is no
// queue to run them.
func (s *RunService) RecoverInterrupted(ctx context.Context) (aborted, requeued int, err error) {
	running, err := s.runs.FindByStatus(ctx, pipeline.RunStatusRunning)
	if err != nil {
		return 0, 0, fmt.Errorf("find running runs: %w", err)
	}
	for i := range running {
		run := &running[i]
		if err := run.Abort("Run interrupted by a server restart"); err != nil {
			return aborted, requeued, err
		}
		run.ClearDomainEvents()
		if err := s.runs.Save(ctx, run); err != nil {
			return aborted, requeued, err
		}
		aborted++
	}

	pending, err := s.runs.FindByStatus(ctx, pipeline.RunStatusPending)
	if err != nil {
		return aborted, requeued, fmt.Errorf("find pending runs: %w", err)
	}
	for i := range pending {
		run := &pending[i]
		if s.queue != nil {
			qerr := s.queue.SubmitRun(run.ID)
			if qerr == nil {
				requeued++
				continue
			}
			err = s.abandon(ctx, run, "Run could not be queued: "+qerr.Error())
		} else {
			err = s.abandon(ctx, run, "Run interrupted before it started")
		}
		if err != nil {
			return aborted, requeued, err
		}
		aborted++
	}

	if aborted > 0 || requeued > 0 {
		s.logger.Warn("Recovered interrupted runs",
			zap.Int("aborted", aborted),
			zap.Int("requeued", requeued),
		)
	}
	return aborted, requeued, nil
}

// Get returns a run with its stage outputs
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*RunResponse, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRunResponse(run, true)
	return &resp, nil
}

// List returns a page of runs, newest first
func (s *RunService) List(ctx context.Context, f RunListFilter) (shared.Paginated[RunResponse], error) {
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize()
	status := pipeline.RunStatus(f.Status)
	if status != "" && !status.IsValid() {
		return shared.Paginated[RunResponse]{}, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown run status %q", f.Status))
	}
	runs, total, err := s.runs.FindAll(ctx, filter, status)
	if err != nil {
		return shared.Paginated[RunResponse]{}, err
	}
	return shared.NewPaginated(ToRunResponses(runs), total, filter.Page, filter.PageSize), nil
}

// Delete removes a run that is not running, together with its article
func (s *RunService) Delete(ctx context.Context, id uuid.UUID) error {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !run.CanDelete() {
		return shared.NewDomainError("RUN_IN_PROGRESS", "Cannot delete a running pipeline run")
	}
	if err := s.articles.DeleteByRunID(ctx, id); err != nil {
		return err
	}
	return s.runs.Delete(ctx, id)
}

// Retry starts a new run with the brief of a finished or pending one. The
// pending run is failed first.
func (s *RunService) Retry(ctx context.Context, id uuid.UUID) (*RunResponse, error) {
	prev, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case prev.Status == pipeline.RunStatusPending:
		// a pending run may be stuck in a dropped queue; make sure it never runs twice
		if err := s.abandon(ctx, prev, "Superseded by a retry"); err != nil {
			return nil, err
		}
	case !prev.Status.IsTerminal():
		return nil, shared.NewDomainError("RUN_NOT_FINISHED", "Running runs cannot be retried")
	}
	run, err := pipeline.NewRun(prev.Brief)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, run)
}

// GetArticle returns the article a run produced
func (s *RunService) GetArticle(ctx context.Context, runID uuid.UUID) (*ArticleResponse, error) {
	a, err := s.articles.FindByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	resp := ToArticleResponse(a, true)
	return &resp, nil
}

// GetArticleByID returns one article with its bodies
func (s *RunService) GetArticleByID(ctx context.Context, id uuid.UUID) (*ArticleResponse, error) {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToArticleResponse(a, true)
	return &resp, nil
}

// ListArticles returns a page of articles without bodies
func (s *RunService) ListArticles(ctx context.Context, f ArticleListFilter) (shared.Paginated[ArticleResponse], error) {
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize()
	if f.Published != nil {
		filter.Filters["published"] = *f.Published
	}
	items, total, err := s.articles.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ArticleResponse]{}, err
	}
	return shared.NewPaginated(ToArticleResponses(items), total, filter.Page, filter.PageSize), nil
}

// PublishArticle sends a stored, unpublished article to the blog.
func (s *RunService) PublishArticle(ctx context.Context, id uuid.UUID, req PublishArticleRequest) (*ArticleResponse, error) {
	if s.gateway == nil {
		return nil, shared.NewDomainError("PUBLISHING_NOT_CONFIGURED", "WordPress is not configured")
	}
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsPublished() {
		return nil, shared.NewDomainError("ALREADY_PUBLISHED", "Article is already published")
	}
	status := req.Status
	if status == "" {
		status = s.defaultStatus
	}

	res, err := agent.PublishPost(ctx, s.gateway, agent.PostInput{
		Title:           a.Title,
		HTML:            a.HTML,
		Excerpt:         a.Excerpt,
		Slug:            a.Slug,
		Status:          status,
		Categories:      a.Categories,
		Tags:            a.Tags,
		MetaTitle:       a.MetaTitle,
		MetaDescription: a.MetaDescription,
		FocusKeyword:    a.FocusKeyword,
	})
	if err != nil {
		return nil, fmt.Errorf("publish article: %w", err)
	}
	at := s.now().UTC()
	if err := a.MarkPublished(article.Publication{
		PostID:      res.ID,
		PostURL:     res.Link,
		EditURL:     s.gateway.EditURL(res.ID),
		Status:      res.Status,
		PublishedAt: &at,
	}); err != nil {
		return nil, err
	}
	if err := s.articles.Save(ctx, a); err != nil {
		return nil, err
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, a.PullDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish article events", zap.Error(err))
		}
	}
	s.logger.Info("Article published",
		zap.String("article_id", a.ID.String()),
		zap.Int64("post_id", res.ID),
	)
	resp := ToArticleResponse(a, true)
	return &resp, nil
}

// Results builds the results document of a finished run.
func (s *RunService) Results(ctx context.Context, runID uuid.UUID) (*ResultsDocument, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.Status.IsTerminal() {
		return nil, shared.NewDomainError("RUN_NOT_FINISHED", "Run has not finished yet")
	}
	a, err := s.articles.FindByRunID(ctx, runID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	doc := NewResultsDocument(run, a, s.now().UTC())
	return &doc, nil
}

// ResultsJSON renders the results document the way it is archived.
func ResultsJSON(doc ResultsDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Archive returns a download link for the archived results of a run.
func (s *RunService) Archive(ctx context.Context, runID uuid.UUID) (*ArchiveResponse, error) {
	if s.archive == nil {
		return nil, shared.NewDomainError("ARCHIVE_NOT_CONFIGURED", "Result archive is not configured")
	}
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.FinishedAt == nil {
		return nil, shared.NewDomainError("RUN_NOT_FINISHED", "Run has not finished yet")
	}
	key := storage.ResultsKey(run.ID, *run.FinishedAt)
	ok, err := s.archive.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	url, expires, err := s.archive.URL(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := &ArchiveResponse{Key: key, URL: url}
	if !expires.IsZero() {
		resp.ExpiresAt = &expires
	}
	return resp, nil
}

// IsTerminal reports whether a run has finished, for progress streams.
func (s *RunService) IsTerminal(ctx context.Context, runID uuid.UUID) (bool, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return false, err
	}
	return run.Status.IsTerminal(), nil
}
