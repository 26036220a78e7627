// Package content serves standalone content analysis.
package content

import (
	"context"
	"strings"

	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/domain/shared"
)

// AnalyzeRequest is text to check against target keywords
type AnalyzeRequest struct {
	Content  string   `json:"content" binding:"required,max=200000"`
	Keywords []string `json:"keywords" binding:"max=20,dive,max=100"`
}

// AnalyzeResponse is the optimization report with structure details
type AnalyzeResponse struct {
	content.Analysis
	H2Count         int             `json:"h2_count"`
	H3Count         int             `json:"h3_count"`
	ReadTimeMinutes int             `json:"read_time_minutes"`
	Outline         content.Outline `json:"outline"`
}

// Service analyzes content
type Service struct{}

// NewService creates a new Service
func NewService() *Service {
	return &Service{}
}

// Analyze reports keyword density, SEO and readability scores of the text
func (s *Service) Analyze(_ context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	text := strings.TrimSpace(req.Content)
	if text == "" {
		return nil, shared.NewDomainError("EMPTY_CONTENT", "Content is required")
	}
	analysis := content.Optimize(text, keyword.Dedupe(req.Keywords))
	h2, h3 := content.HeadingCounts(text)
	return &AnalyzeResponse{
		Analysis:        analysis,
		H2Count:         h2,
		H3Count:         h3,
		ReadTimeMinutes: content.ReadTime(analysis.WordCount),
		Outline:         content.ParseOutline(text),
	}, nil
}
