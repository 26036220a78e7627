// Package seo fetches keyword metrics and search results from SEO data
// sources, falling back to deterministic mock data.
package seo

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/infrastructure/cache"
	"github.com/seoblog/backend/internal/infrastructure/config"
)

// Endpoints are the provider base URLs.
type Endpoints struct {
	Semrush      string
	Ahrefs       string
	Autocomplete string
	SerpAPI      string
}

// DefaultEndpoints returns the public API endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Semrush:      "https://api.semrush.com/",
		Ahrefs:       "https://apiv2.ahrefs.com",
		Autocomplete: "https://suggestqueries.google.com/complete/search",
		SerpAPI:      "https://serpapi.com/search",
	}
}

// Recorder receives one observation per lookup.
type Recorder interface {
	SEOLookup(source, outcome string)
}

// SourceStatus reports whether a data source is usable.
type SourceStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the lookup recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithEndpoints overrides provider base URLs.
func WithEndpoints(e Endpoints) Option {
	return func(s *Service) { s.endpoints = e }
}

// WithConcurrency bounds parallel seed lookups.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRateLimit sets requests per second shared by all providers.
func WithRateLimit(perSecond float64) Option {
	return func(s *Service) { s.perSecond = perSecond }
}

// Service researches keywords. Paid providers are preferred when their
// keys are set, then free autocomplete, then mock data.
type Service struct {
	paid   []KeywordProvider
	free   KeywordProvider
	mock   KeywordProvider
	serp   *SERPClient
	cache  cache.KeywordCache
	ttl    time.Duration
	logger *zap.Logger

	recorder    Recorder
	endpoints   Endpoints
	concurrency int
	perSecond   float64
}

// NewService builds the provider chain from cfg. kc may be nil.
func NewService(cfg config.SEOConfig, kc cache.KeywordCache, ttl time.Duration, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		mock:        MockProvider{},
		cache:       kc,
		ttl:         ttl,
		logger:      logger.Named("seo"),
		endpoints:   DefaultEndpoints(),
		concurrency: 4,
		perSecond:   2,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}

	country := strings.ToLower(cfg.Country)
	if country == "" {
		country = "us"
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	f := newFetcher(cfg.Timeout, s.perSecond)

	if cfg.SemrushKey != "" {
		s.paid = append(s.paid, &SemrushProvider{key: cfg.SemrushKey, database: country, baseURL: s.endpoints.Semrush, fetch: f})
	}
	if cfg.AhrefsKey != "" {
		s.paid = append(s.paid, &AhrefsProvider{key: cfg.AhrefsKey, country: country, baseURL: s.endpoints.Ahrefs, fetch: f})
	}
	if cfg.FreeTools {
		s.free = &AutocompleteProvider{language: language, baseURL: s.endpoints.Autocomplete, fetch: f}
	}
	if cfg.SerpAPIKey != "" {
		s.serp = &SERPClient{
			key:      cfg.SerpAPIKey,
			location: "United States",
			language: language,
			country:  country,
			baseURL:  s.endpoints.SerpAPI,
			fetch:    f,
		}
	}
	return s
}

// Sources lists every data source and whether it is configured.
func (s *Service) Sources() []SourceStatus {
	return []SourceStatus{
		{Name: SourceSemrush, Configured: s.hasProvider(SourceSemrush)},
		{Name: SourceAhrefs, Configured: s.hasProvider(SourceAhrefs)},
		{Name: SourceFree, Configured: s.free != nil},
		{Name: SourceSerpAPI, Configured: s.serp != nil},
		{Name: SourceMock, Configured: true},
	}
}

func (s *Service) hasProvider(name string) bool {
	for _, p := range s.paid {
		if p.Name() == name {
			return true
		}
	}
	return false
}

// ResearchKeywords returns merged metrics for all seeds. Seeds are looked
// up concurrently; a failing source degrades to the next one in the chain
// and never fails the call.
func (s *Service) ResearchKeywords(ctx context.Context, seeds []string) ([]keyword.Metrics, error) {
	seeds = keyword.Dedupe(seeds)
	if len(seeds) == 0 {
		return nil, nil
	}
	results := make([][]keyword.Metrics, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, seed := range seeds {
		g.Go(func() error {
			metrics, err := s.researchSeed(gctx, seed)
			if err != nil {
				return err
			}
			results[i] = metrics
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keyword.Merge(results...), nil
}

func (s *Service) researchSeed(ctx context.Context, seed string) ([]keyword.Metrics, error) {
	key := cache.KeywordKey(s.chainName(), seed)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Keyword cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			s.record("cache", "hit")
			return cached, nil
		}
	}

	metrics := s.fromPaid(ctx, seed)
	if len(metrics) == 0 && s.free != nil {
		metrics = s.fromProvider(ctx, s.free, seed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		metrics, _ = s.mock.Research(ctx, seed)
		s.record(SourceMock, "ok")
		// mock data is not cached so a recovered provider is used next time
		return metrics, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, metrics, s.ttl); err != nil {
			s.logger.Warn("Keyword cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return metrics, nil
}

func (s *Service) fromPaid(ctx context.Context, seed string) []keyword.Metrics {
	var sets [][]keyword.Metrics
	for _, p := range s.paid {
		if m := s.fromProvider(ctx, p, seed); len(m) > 0 {
			sets = append(sets, m)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	return keyword.Merge(sets...)
}

func (s *Service) fromProvider(ctx context.Context, p KeywordProvider, seed string) []keyword.Metrics {
	metrics, err := p.Research(ctx, seed)
	switch {
	case err != nil:
		s.record(p.Name(), "error")
		s.logger.Warn("Keyword source failed, falling back",
			zap.String("source", p.Name()),
			zap.String("seed", seed),
			zap.Error(err),
		)
		return nil
	case len(metrics) == 0:
		s.record(p.Name(), "empty")
		return nil
	default:
		s.record(p.Name(), "ok")
		return metrics
	}
}

func (s *Service) chainName() string {
	names := make([]string, 0, len(s.paid)+1)
	for _, p := range s.paid {
		names = append(names, p.Name())
	}
	if s.free != nil {
		names = append(names, s.free.Name())
	}
	if len(names) == 0 {
		return SourceMock
	}
	return strings.Join(names, "+")
}

// SERPAnalysis returns the results page for term from SerpAPI, or mock
// results when SerpAPI is unavailable.
func (s *Service) SERPAnalysis(ctx context.Context, term string) (*keyword.SERPResult, error) {
	term = strings.TrimSpace(term)
	if s.serp != nil {
		res, err := s.serp.Search(ctx, term)
		if err == nil {
			s.record(SourceSerpAPI, "ok")
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.record(SourceSerpAPI, "error")
		s.logger.Warn("SERP lookup failed, using mock results", zap.String("keyword", term), zap.Error(err))
	}
	s.record(SourceMock, "ok")
	return MockSERP(term), nil
}

// AnalyzeCompetitor profiles a competing domain.
func (s *Service) AnalyzeCompetitor(_ context.Context, domain string, keywords []string) (*keyword.CompetitorProfile, error) {
	s.record(SourceMock, "ok")
	return MockCompetitor(domain, keywords), nil
}

func (s *Service) record(source, outcome string) {
	if s.recorder != nil {
		s.recorder.SEOLookup(source, outcome)
	}
}
