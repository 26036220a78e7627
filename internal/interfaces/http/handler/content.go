package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	contentapp "github.com/seoblog/backend/internal/application/content"
)

// ContentAnalyzer checks text against target keywords
type ContentAnalyzer interface {
	Analyze(ctx context.Context, req contentapp.AnalyzeRequest) (*contentapp.AnalyzeResponse, error)
}

// ContentHandler handles content analysis
type ContentHandler struct {
	BaseHandler
	analyzer ContentAnalyzer
}

// NewContentHandler creates a new content handler
func NewContentHandler(analyzer ContentAnalyzer) *ContentHandler {
	return &ContentHandler{analyzer: analyzer}
}

// Analyze reports keyword density, structure and suggestions for a draft
func (h *ContentHandler) Analyze(c *gin.Context) {
	var req contentapp.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
