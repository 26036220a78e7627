package handler

import (
	"github.com/gin-gonic/gin"

	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
)

// ArticleHandler handles generated article endpoints
type ArticleHandler struct {
	BaseHandler
	runs RunService
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(runs RunService) *ArticleHandler {
	return &ArticleHandler{runs: runs}
}

// List returns articles without their bodies
func (h *ArticleHandler) List(c *gin.Context) {
	var filter pipelineapp.ArticleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.runs.ListArticles(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one article with its markdown and HTML
func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	a, err := h.runs.GetArticleByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Publish sends an unpublished article to WordPress. The body is optional.
func (h *ArticleHandler) Publish(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req pipelineapp.PublishArticleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	a, err := h.runs.PublishArticle(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}
