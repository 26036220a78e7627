package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/pipeline"
)

// CreateRunRequest is the brief a caller submits to start a run
type CreateRunRequest struct {
	ProductName      string           `json:"product_name" binding:"required,min=1,max=200"`
	Niche            string           `json:"niche" binding:"required,min=1,max=200"`
	TargetAudience   string           `json:"target_audience" binding:"required,min=1,max=500"`
	TargetKeywords   []string         `json:"target_keywords" binding:"omitempty,max=20,dive,max=100"`
	ContentLength    string           `json:"content_length" binding:"max=50"`
	Budget           *decimal.Decimal `json:"budget"`
	PublishStatus    string           `json:"publish_status" binding:"omitempty,oneof=draft publish pending private"`
	SkipQualityCheck bool             `json:"skip_quality_check"`
	SkipPublishing   bool             `json:"skip_publishing"`
}

// ToBrief converts the request, using defaultStatus when none was given.
func (r CreateRunRequest) ToBrief(defaultStatus string) pipeline.Brief {
	b := pipeline.Brief{
		ProductName:      r.ProductName,
		Niche:            r.Niche,
		TargetAudience:   r.TargetAudience,
		TargetKeywords:   r.TargetKeywords,
		ContentLength:    r.ContentLength,
		PublishStatus:    pipeline.PublishStatus(r.PublishStatus),
		SkipQualityCheck: r.SkipQualityCheck,
		SkipPublishing:   r.SkipPublishing,
	}
	if b.PublishStatus == "" {
		b.PublishStatus = pipeline.PublishStatus(defaultStatus)
	}
	if r.Budget != nil {
		b.Budget = *r.Budget
	}
	return b
}

// StageResponse is one stage of a run
type StageResponse struct {
	Stage       pipeline.StageName   `json:"stage"`
	DisplayName string               `json:"display_name"`
	Status      pipeline.StageStatus `json:"status"`
	Progress    int                  `json:"progress"`
	CurrentStep string               `json:"current_step,omitempty"`
	Confidence  int                  `json:"confidence"`
	Reasoning   []string             `json:"reasoning,omitempty"`
	Errors      []string             `json:"errors,omitempty"`
	Output      json.RawMessage      `json:"output,omitempty"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	FinishedAt  *time.Time           `json:"finished_at,omitempty"`
	DurationSec float64              `json:"duration_seconds"`
}

// RunResponse is a run in API responses
type RunResponse struct {
	ID              uuid.UUID          `json:"id"`
	Brief           pipeline.Brief     `json:"brief"`
	Status          pipeline.RunStatus `json:"status"`
	ScheduleID      *uuid.UUID         `json:"schedule_id,omitempty"`
	CurrentStage    pipeline.StageName `json:"current_stage,omitempty"`
	Progress        int                `json:"progress"`
	AgentsCompleted int                `json:"agents_completed"`
	Stages          []StageResponse    `json:"stages"`
	Errors          []string           `json:"errors"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	FinishedAt      *time.Time         `json:"finished_at,omitempty"`
	DurationSec     float64            `json:"duration_seconds"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ToRunResponse converts a run. Stage outputs are included only when
// withOutputs is set, listings leave them out.
func ToRunResponse(r *pipeline.Run, withOutputs bool) RunResponse {
	stages := make([]StageResponse, 0, len(r.Stages))
	for _, s := range r.Stages {
		sr := StageResponse{
			Stage:       s.Stage,
			DisplayName: s.Stage.DisplayName(),
			Status:      s.Status,
			Progress:    s.Progress,
			CurrentStep: s.CurrentStep,
			Confidence:  s.Confidence,
			Errors:      s.Errors,
			StartedAt:   s.StartedAt,
			FinishedAt:  s.FinishedAt,
			DurationSec: s.Duration.Seconds(),
		}
		if withOutputs {
			sr.Reasoning = s.Reasoning
			sr.Output = s.Output
			sr.Metadata = s.Metadata
		}
		stages = append(stages, sr)
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return RunResponse{
		ID:              r.ID,
		Brief:           r.Brief,
		Status:          r.Status,
		ScheduleID:      r.ScheduleID,
		CurrentStage:    r.CurrentStage,
		Progress:        r.Progress(),
		AgentsCompleted: r.AgentsCompleted(),
		Stages:          stages,
		Errors:          errs,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		DurationSec:     r.Duration.Seconds(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToRunResponses converts a page of runs without stage outputs.
func ToRunResponses(runs []pipeline.Run) []RunResponse {
	out := make([]RunResponse, len(runs))
	for i := range runs {
		out[i] = ToRunResponse(&runs[i], false)
	}
	return out
}

// RunListFilter narrows a run listing
type RunListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING RUNNING COMPLETED COMPLETED_WITH_ERRORS FAILED"`
	Search   string `form:"search" binding:"max=100"`
}

// ArticleResponse is an article in API responses
type ArticleResponse struct {
	ID              uuid.UUID           `json:"id"`
	RunID           uuid.UUID           `json:"run_id"`
	Title           string              `json:"title"`
	Slug            string              `json:"slug"`
	Markdown        string              `json:"markdown,omitempty"`
	HTML            string              `json:"html,omitempty"`
	Excerpt         string              `json:"excerpt"`
	MetaTitle       string              `json:"meta_title"`
	MetaDescription string              `json:"meta_description"`
	FocusKeyword    string              `json:"focus_keyword"`
	Keywords        []string            `json:"keywords"`
	Categories      []string            `json:"categories"`
	Tags            []string            `json:"tags"`
	WordCount       int                 `json:"word_count"`
	ReadTimeMinutes int                 `json:"read_time_minutes"`
	QualityScore    int                 `json:"quality_score"`
	QualityGrade    string              `json:"quality_grade"`
	Published       bool                `json:"published"`
	Publication     article.Publication `json:"publication"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToArticleResponse converts an article. Bodies are left out when
// withBody is false.
func ToArticleResponse(a *article.Article, withBody bool) ArticleResponse {
	resp := ArticleResponse{
		ID:              a.ID,
		RunID:           a.RunID,
		Title:           a.Title,
		Slug:            a.Slug,
		Excerpt:         a.Excerpt,
		MetaTitle:       a.MetaTitle,
		MetaDescription: a.MetaDescription,
		FocusKeyword:    a.FocusKeyword,
		Keywords:        a.Keywords,
		Categories:      a.Categories,
		Tags:            a.Tags,
		WordCount:       a.WordCount,
		ReadTimeMinutes: a.ReadTimeMinutes,
		QualityScore:    a.QualityScore,
		QualityGrade:    a.QualityGrade,
		Published:       a.IsPublished(),
		Publication:     a.Publication,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if withBody {
		resp.Markdown = a.Markdown
		resp.HTML = a.HTML
	}
	return resp
}

// ToArticleResponses converts a page of articles without bodies.
func ToArticleResponses(items []article.Article) []ArticleResponse {
	out := make([]ArticleResponse, len(items))
	for i := range items {
		out[i] = ToArticleResponse(&items[i], false)
	}
	return out
}

// ArticleListFilter narrows an article listing
type ArticleListFilter struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search    string `form:"search" binding:"max=100"`
	Published *bool  `form:"published"`
}

// PublishArticleRequest asks for manual publishing of a stored article
type PublishArticleRequest struct {
	Status string `json:"status" binding:"omitempty,oneof=draft publish pending private"`
}

// ResultsDocument is the summary written after a run finishes.
type ResultsDocument struct {
	Timestamp time.Time         `json:"timestamp"`
	RunID     uuid.UUID         `json:"run_id"`
	Config    ResultsConfig     `json:"config"`
	Execution ResultsExecution  `json:"execution"`
	WordPress *ResultsWordPress `json:"wordpress"`
}

// ResultsConfig echoes the brief.
type ResultsConfig struct {
	ProductName    string   `json:"product_name"`
	Niche          string   `json:"niche"`
	TargetAudience string   `json:"target_audience"`
	Keywords       []string `json:"keywords"`
}

// ResultsExecution summarizes how the run went.
type ResultsExecution struct {
	Status          pipeline.RunStatus `json:"status"`
	Duration        float64            `json:"duration"`
	AgentsCompleted int                `json:"agents_completed"`
	Errors          []string           `json:"errors"`
}

// ResultsWordPress points at the published post.
type ResultsWordPress struct {
	PostID  int64  `json:"post_id"`
	PostURL string `json:"post_url"`
	EditURL string `json:"edit_url"`
	Status  string `json:"status"`
}

// NewResultsDocument summarizes a run and, when published, its post.
func NewResultsDocument(r *pipeline.Run, a *article.Article, now time.Time) ResultsDocument {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	doc := ResultsDocument{
		Timestamp: now,
		RunID:     r.ID,
		Config: ResultsConfig{
			ProductName:    r.Brief.ProductName,
			Niche:          r.Brief.Niche,
			TargetAudience: r.Brief.TargetAudience,
			Keywords:       r.Brief.TargetKeywords,
		},
		Execution: ResultsExecution{
			Status:          r.Status,
			Duration:        r.Duration.Seconds(),
			AgentsCompleted: r.AgentsCompleted(),
			Errors:          errs,
		},
	}
	if a != nil && a.IsPublished() {
		doc.WordPress = &ResultsWordPress{
			PostID:  a.Publication.PostID,
			PostURL: a.Publication.PostURL,
			EditURL: a.Publication.EditURL,
			Status:  a.Publication.Status,
		}
	}
	return doc
}

// ArchiveResponse is a download link for a run's archived results
type ArchiveResponse struct {
	Key       string     `json:"key"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateScheduleRequest creates a recurring generation
type CreateScheduleRequest struct {
	Name     string           `json:"name" binding:"required,min=1,max=100"`
	CronExpr string           `json:"cron_expr" binding:"required,max=100"`
	Brief    CreateRunRequest `json:"brief" binding:"required"`
}

// ScheduleResponse is a schedule in API responses
type ScheduleResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	CronExpr  string         `json:"cron_expr"`
	Brief     pipeline.Brief `json:"brief"`
	Enabled   bool           `json:"enabled"`
	NextRunAt *time.Time     `json:"next_run_at,omitempty"`
	LastRunAt *time.Time     `json:"last_run_at,omitempty"`
	LastRunID *uuid.UUID     `json:"last_run_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
