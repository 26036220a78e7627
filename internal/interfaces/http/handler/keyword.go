package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	keywordapp "github.com/seoblog/backend/internal/application/keyword"
	"github.com/seoblog/backend/internal/domain/keyword"
)

// KeywordService researches and scores keywords
type KeywordService interface {
	Research(ctx context.Context, req keywordapp.ResearchRequest) (*keywordapp.ResearchResponse, error)
	Score(ctx context.Context, req keywordapp.ScoreRequest) (*keywordapp.ScoredResponse, error)
	SERP(ctx context.Context, term string) (*keyword.SERPResult, error)
	Competitor(ctx context.Context, req keywordapp.CompetitorRequest) (*keyword.CompetitorProfile, error)
}

// SERPQuery is the query of GET /keywords/serp
type SERPQuery struct {
	Q string `form:"q" binding:"required,max=100"`
}

// KeywordHandler handles keyword research endpoints
type KeywordHandler struct {
	BaseHandler
	keywords KeywordService
}

// NewKeywordHandler creates a new keyword handler
func NewKeywordHandler(keywords KeywordService) *KeywordHandler {
	return &KeywordHandler{keywords: keywords}
}

// Research looks up metrics for seed keywords and scores them
func (h *KeywordHandler) Research(c *gin.Context) {
	var req keywordapp.ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.keywords.Research(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Score ranks caller-supplied keyword metrics
func (h *KeywordHandler) Score(c *gin.Context) {
	var req keywordapp.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.keywords.Score(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SERP returns the top results for a search term
func (h *KeywordHandler) SERP(c *gin.Context) {
	var q SERPQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.keywords.SERP(c.Request.Context(), q.Q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Competitor profiles a competing domain
func (h *KeywordHandler) Competitor(c *gin.Context) {
	var req keywordapp.CompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.keywords.Competitor(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
