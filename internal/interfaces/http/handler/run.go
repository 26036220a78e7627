package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
)

// RunService is what the run and article endpoints need from the
// application layer
type RunService interface {
	Create(ctx context.Context, req pipelineapp.CreateRunRequest) (*pipelineapp.RunResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*pipelineapp.RunResponse, error)
	List(ctx context.Context, f pipelineapp.RunListFilter) (shared.Paginated[pipelineapp.RunResponse], error)
	Delete(ctx context.Context, id uuid.UUID) error
	Retry(ctx context.Context, id uuid.UUID) (*pipelineapp.RunResponse, error)
	GetArticle(ctx context.Context, runID uuid.UUID) (*pipelineapp.ArticleResponse, error)
	GetArticleByID(ctx context.Context, id uuid.UUID) (*pipelineapp.ArticleResponse, error)
	ListArticles(ctx context.Context, f pipelineapp.ArticleListFilter) (shared.Paginated[pipelineapp.ArticleResponse], error)
	PublishArticle(ctx context.Context, id uuid.UUID, req pipelineapp.PublishArticleRequest) (*pipelineapp.ArticleResponse, error)
	Results(ctx context.Context, runID uuid.UUID) (*pipelineapp.ResultsDocument, error)
	Archive(ctx context.Context, runID uuid.UUID) (*pipelineapp.ArchiveResponse, error)
	IsTerminal(ctx context.Context, runID uuid.UUID) (bool, error)
}

// RunHandler handles pipeline run endpoints
type RunHandler struct {
	BaseHandler
	runs RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunService) *RunHandler {
	return &RunHandler{runs: runs}
}

// Create starts a run. Execution continues in the background, so the
// response is 202 with the run as it was queued.
func (h *RunHandler) Create(c *gin.Context) {
	var req pipelineapp.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	run, err := h.runs.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, run)
}

// List returns runs, newest first
func (h *RunHandler) List(c *gin.Context) {
	var filter pipelineapp.RunListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.runs.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one run with its stage outputs
func (h *RunHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	run, err := h.runs.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// Delete removes a finished run and its article
func (h *RunHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.runs.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Retry starts a new run from the brief of a finished one
func (h *RunHandler) Retry(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	run, err := h.runs.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, run)
}

// Article returns the article a run produced
func (h *RunHandler) Article(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	a, err := h.runs.GetArticle(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Results returns the results document of a finished run
func (h *RunHandler) Results(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	doc, err := h.runs.Results(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Archive returns a download link for the archived results
func (h *RunHandler) Archive(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	link, err := h.runs.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}
