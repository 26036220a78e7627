// Package keyword serves keyword research and scoring outside of a run.
package keyword

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/domain/shared"
)

// Source is where keyword metrics and SERP data come from.
type Source interface {
	ResearchKeywords(ctx context.Context, seeds []string) ([]keyword.Metrics, error)
	SERPAnalysis(ctx context.Context, term string) (*keyword.SERPResult, error)
	AnalyzeCompetitor(ctx context.Context, domain string, keywords []string) (*keyword.CompetitorProfile, error)
}

// ResearchRequest lists seed keywords to look up
type ResearchRequest struct {
	Keywords []string `json:"keywords" binding:"required,min=1,max=20,dive,required,max=100"`
}

// MetricsInput is one keyword to score
type MetricsInput struct {
	Keyword      string          `json:"keyword" binding:"required,max=100"`
	SearchVolume int64           `json:"search_volume" binding:"min=0"`
	Difficulty   float64         `json:"difficulty" binding:"min=0,max=100"`
	CPC          decimal.Decimal `json:"cpc"`
	Competition  string          `json:"competition"`
	Trend        []float64       `json:"trend"`
}

// ScoreRequest lists keywords to score
type ScoreRequest struct {
	Keywords []MetricsInput `json:"keywords" binding:"required,min=1,max=200,dive"`
}

// CompetitorRequest names a domain to profile
type CompetitorRequest struct {
	Domain   string   `json:"domain" binding:"required,max=253"`
	Keywords []string `json:"keywords" binding:"max=20"`
}

// ScoredResponse is a scored keyword set with its report
type ScoredResponse struct {
	Keywords []keyword.Score `json:"keywords"`
	Report   keyword.Report  `json:"report"`
}

// ResearchResponse is the researched metrics and their scores
type ResearchResponse struct {
	Metrics []keyword.Metrics `json:"metrics"`
	ScoredResponse
}

// Service researches and scores keywords
type Service struct {
	source Source
	scorer *keyword.Scorer
	logger *zap.Logger
}

// NewService creates a new Service
func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, scorer: keyword.NewScorer(), logger: logger}
}

// Research looks up metrics for the seeds and scores them
func (s *Service) Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error) {
	seeds := keyword.Dedupe(req.Keywords)
	if len(seeds) == 0 {
		return nil, shared.NewDomainError("INVALID_KEYWORD", "At least one keyword is required")
	}
	metrics, err := s.source.ResearchKeywords(ctx, seeds)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Keywords researched",
		zap.Int("seeds", len(seeds)),
		zap.Int("results", len(metrics)),
	)
	return &ResearchResponse{Metrics: metrics, ScoredResponse: s.score(metrics)}, nil
}

// Score grades caller supplied metrics
func (s *Service) Score(_ context.Context, req ScoreRequest) (*ScoredResponse, error) {
	metrics := make([]keyword.Metrics, 0, len(req.Keywords))
	for _, in := range req.Keywords {
		m, err := keyword.NewMetrics(in.Keyword, in.SearchVolume, in.Difficulty, in.CPC)
		if err != nil {
			return nil, err
		}
		if c := strings.TrimSpace(in.Competition); c != "" {
			m.Competition = strings.ToLower(c)
		}
		m.Trend = in.Trend
		metrics = append(metrics, m)
	}
	resp := s.score(metrics)
	return &resp, nil
}

func (s *Service) score(metrics []keyword.Metrics) ScoredResponse {
	scores := s.scorer.ScoreAll(metrics)
	return ScoredResponse{Keywords: scores, Report: keyword.BuildReport(scores)}
}

// SERP returns the search results page for a term
func (s *Service) SERP(ctx context.Context, term string) (*keyword.SERPResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, shared.NewDomainError("INVALID_KEYWORD", "Search term is required")
	}
	return s.source.SERPAnalysis(ctx, term)
}

// Competitor profiles a competing domain
func (s *Service) Competitor(ctx context.Context, req CompetitorRequest) (*keyword.CompetitorProfile, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		return nil, shared.NewDomainError("INVALID_DOMAIN", "Domain is required")
	}
	return s.source.AnalyzeCompetitor(ctx, domain, keyword.Dedupe(req.Keywords))
}
