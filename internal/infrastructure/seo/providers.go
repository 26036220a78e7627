package seo

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/seoblog/backend/internal/domain/keyword"
)

// Source names reported on keyword metrics.
const (
	SourceSemrush = "semrush"
	SourceAhrefs  = "ahrefs"
	SourceFree    = "free_tools"
	SourceMock    = "mock"
	SourceSerpAPI = "serpapi"
)

// KeywordProvider researches one seed keyword.
type KeywordProvider interface {
	Name() string
	Research(ctx context.Context, seed string) ([]keyword.Metrics, error)
}

// SemrushProvider reads the phrase_related report.
type SemrushProvider struct {
	key      string
	database string
	baseURL  string
	fetch    *fetcher
}

func (p *SemrushProvider) Name() string { return SourceSemrush }

// Research requests up to 100 related phrases. The response is a
// semicolon separated table with columns Ph;Nq;Cp;Co;Kd.
func (p *SemrushProvider) Research(ctx context.Context, seed string) ([]keyword.Metrics, error) {
	params := url.Values{
		"type":           {"phrase_related"},
		"key":            {p.key},
		"phrase":         {seed},
		"database":       {p.database},
		"export_columns": {"Ph,Nq,Cp,Co,Kd"},
		"display_limit":  {"100"},
	}
	body, err := p.fetch.get(ctx, p.baseURL, params, nil)
	if err != nil {
		return nil, fmt.Errorf("seo: semrush: %w", err)
	}
	return parseSemrush(body)
}

func parseSemrush(body []byte) ([]keyword.Metrics, error) {
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("ERROR")) {
		if bytes.Contains(trimmed, []byte("NOTHING FOUND")) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: semrush: %s", ErrUpstream, trimmed)
	}
	r := csv.NewReader(bytes.NewReader(trimmed))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []keyword.Metrics
	header := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seo: semrush: parse: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 5 {
			continue
		}
		volume, _ := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
		cpc, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			cpc = decimal.Zero
		}
		co, _ := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		kd, _ := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
		m, err := keyword.NewMetrics(rec[0], volume, kd, cpc)
		if err != nil {
			continue
		}
		m.Competition = competitionLevel(co)
		m.Source = SourceSemrush
		out = append(out, m)
	}
	return out, nil
}

// competitionLevel maps a 0..1 competition density onto a label.
func competitionLevel(density float64) string {
	switch {
	case density < 0.33:
		return keyword.CompetitionLow
	case density < 0.66:
		return keyword.CompetitionMedium
	default:
		return keyword.CompetitionHigh
	}
}

// AhrefsProvider reads keyword metrics with a bearer token.
type AhrefsProvider struct {
	key     string
	country string
	baseURL string
	fetch   *fetcher
}

func (p *AhrefsProvider) Name() string { return SourceAhrefs }

// Research expects a JSON body with a keywords array.
func (p *AhrefsProvider) Research(ctx context.Context, seed string) ([]keyword.Metrics, error) {
	params := url.Values{
		"target":  {seed},
		"country": {p.country},
		"mode":    {"exact"},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + p.key,
		"Accept":        "application/json",
	}
	body, err := p.fetch.get(ctx, p.baseURL, params, headers)
	if err != nil {
		return nil, fmt.Errorf("seo: ahrefs: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: ahrefs: invalid json", ErrUpstream)
	}
	var out []keyword.Metrics
	gjson.GetBytes(body, "keywords").ForEach(func(_, item gjson.Result) bool {
		cpc := decimal.NewFromFloat(item.Get("cpc").Float())
		m, err := keyword.NewMetrics(item.Get("keyword").String(), item.Get("search_volume").Int(), item.Get("difficulty").Float(), cpc)
		if err != nil {
			return true
		}
		m.Source = SourceAhrefs
		out = append(out, m)
		return true
	})
	return out, nil
}

// AutocompleteProvider estimates metrics from Google autocomplete
// suggestions. Volumes are rough heuristics.
type AutocompleteProvider struct {
	language string
	baseURL  string
	fetch    *fetcher
}

func (p *AutocompleteProvider) Name() string { return SourceFree }

// Research returns the seed plus each suggestion.
func (p *AutocompleteProvider) Research(ctx context.Context, seed string) ([]keyword.Metrics, error) {
	params := url.Values{
		"client": {"firefox"},
		"q":      {seed},
		"hl":     {p.language},
	}
	body, err := p.fetch.get(ctx, p.baseURL, params, nil)
	if err != nil {
		return nil, fmt.Errorf("seo: autocomplete: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: autocomplete: invalid json", ErrUpstream)
	}
	var suggestions []string
	gjson.GetBytes(body, "1").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			suggestions = append(suggestions, s)
		}
		return true
	})
	terms := keyword.Dedupe(append([]string{seed}, suggestions...))
	out := make([]keyword.Metrics, 0, len(terms))
	for _, term := range terms {
		m, err := keyword.NewMetrics(term, estimateVolume(term), 50, decimal.NewFromFloat(1.5))
		if err != nil {
			continue
		}
		m.Source = SourceFree
		m.Related = relatedExcept(terms, m.Keyword, 5)
		out = append(out, m)
	}
	return out, nil
}

func estimateVolume(term string) int64 {
	if len(strings.Fields(term)) > 2 {
		return 1000
	}
	return 5000
}

func relatedExcept(terms []string, self string, n int) []string {
	var out []string
	for _, t := range terms {
		if keyword.Normalize(t) == self {
			continue
		}
		out = append(out, keyword.Normalize(t))
		if len(out) == n {
			break
		}
	}
	return out
}

// MockProvider fabricates eight variations per seed.
type MockProvider struct{}

func (MockProvider) Name() string { return SourceMock }

// Research never fails.
func (MockProvider) Research(_ context.Context, seed string) ([]keyword.Metrics, error) {
	return MockKeywords(seed), nil
}

// MockKeywords returns the deterministic variations for a seed.
func MockKeywords(seed string) []keyword.Metrics {
	seed = keyword.Normalize(seed)
	if seed == "" {
		return nil
	}
	variations := []string{
		"best " + seed,
		seed + " review",
		seed + " guide",
		"how to choose " + seed,
		seed + " comparison",
		"top " + seed,
		seed + " tips",
		seed + " for beginners",
	}
	related := make([]string, 3)
	for j := range related {
		related[j] = fmt.Sprintf("%s related %d", seed, j)
	}
	out := make([]keyword.Metrics, 0, len(variations))
	for i, v := range variations {
		competition := keyword.CompetitionMedium
		if i%2 == 1 {
			competition = keyword.CompetitionHigh
		}
		out = append(out, keyword.Metrics{
			Keyword:      v,
			SearchVolume: int64(1000 + 500*i),
			Difficulty:   float64(30 + 5*i),
			CPC:          decimal.NewFromFloat(1.5).Add(decimal.NewFromFloat(0.3).Mul(decimal.NewFromInt(int64(i)))),
			Competition:  competition,
			Trend:        []float64{100, 120, 110, 150, 130, 140},
			Related:      append([]string(nil), related...),
			Source:       SourceMock,
		})
	}
	return out
}
