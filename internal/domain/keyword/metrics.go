package keyword

import (
	"strings"

	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Competition levels reported by keyword data sources.
const (
	CompetitionLow    = "low"
	CompetitionMedium = "medium"
	CompetitionHigh   = "high"
)

// Metrics is the raw data a keyword source reports for one search term.
type Metrics struct {
	Keyword      string          `json:"keyword"`
	SearchVolume int64           `json:"search_volume"`
	Difficulty   float64         `json:"difficulty"`
	CPC          decimal.Decimal `json:"cpc"`
	Competition  string          `json:"competition"`
	Trend        []float64       `json:"trend,omitempty"`
	Related      []string        `json:"related_keywords,omitempty"`
	Source       string          `json:"source,omitempty"`
}

// NewMetrics builds metrics for a keyword, normalizing the term.
func NewMetrics(term string, volume int64, difficulty float64, cpc decimal.Decimal) (Metrics, error) {
	term = Normalize(term)
	if term == "" {
		return Metrics{}, shared.NewDomainError("INVALID_KEYWORD", "Keyword cannot be empty")
	}
	if volume < 0 {
		return Metrics{}, shared.NewDomainError("INVALID_VOLUME", "Search volume cannot be negative")
	}
	return Metrics{
		Keyword:      term,
		SearchVolume: volume,
		Difficulty:   difficulty,
		CPC:          cpc,
		Competition:  CompetitionMedium,
	}, nil
}

// WordCount returns the number of words in the keyword.
func (m Metrics) WordCount() int {
	return len(strings.Fields(m.Keyword))
}

// Normalize lowercases and collapses whitespace in a search term.
func Normalize(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

// Merge combines metrics reported by several sources for the same keywords.
// The highest volume wins and related terms are unioned; first-seen order is kept.
func Merge(sets ...[]Metrics) []Metrics {
	index := make(map[string]int)
	merged := make([]Metrics, 0)
	for _, set := range sets {
		for _, m := range set {
			key := Normalize(m.Keyword)
			if key == "" {
				continue
			}
			pos, ok := index[key]
			if !ok {
				m.Keyword = key
				m.Related = dedupe(m.Related)
				index[key] = len(merged)
				merged = append(merged, m)
				continue
			}
			existing := &merged[pos]
			if m.SearchVolume > existing.SearchVolume {
				existing.SearchVolume = m.SearchVolume
			}
			existing.Related = dedupe(append(existing.Related, m.Related...))
			if len(existing.Trend) == 0 && len(m.Trend) > 0 {
				existing.Trend = m.Trend
			}
		}
	}
	return merged
}

// Dedupe returns terms normalized and without repeats, preserving order.
func Dedupe(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		n := Normalize(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func dedupe(terms []string) []string {
	if len(terms) == 0 {
		return terms
	}
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
