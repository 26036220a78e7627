// Package content holds the pure text analysis used to plan, score and
// check generated articles.
package content

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KeywordStat is the occurrence count and density of one keyword.
type KeywordStat struct {
	Keyword     string  `json:"keyword"`
	Occurrences int     `json:"occurrences"`
	Density     float64 `json:"density"`
}

// Analysis is the optimization report for a piece of content.
type Analysis struct {
	WordCount        int           `json:"word_count"`
	KeywordDensity   []KeywordStat `json:"keyword_density"`
	Suggestions      []string      `json:"optimization_suggestions"`
	SEOScore         int           `json:"seo_score"`
	ReadabilityScore int           `json:"readability_score"`
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CountOccurrences counts case-insensitive, non-overlapping occurrences of term.
func CountOccurrences(text, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(term))
}

// KeywordDensity reports occurrences and density (percent of words, two
// decimals) for each non-empty keyword, in input order. Keywords repeated
// case-insensitively are reported once.
func KeywordDensity(text string, keywords []string) []KeywordStat {
	words := WordCount(text)
	stats := make([]KeywordStat, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		n := CountOccurrences(text, kw)
		var density float64
		if words > 0 {
			density = Round2(float64(n) / float64(words) * 100)
		}
		stats = append(stats, KeywordStat{Keyword: kw, Occurrences: n, Density: density})
	}
	return stats
}

// DensityMap flattens stats to keyword -> density.
func DensityMap(stats []KeywordStat) map[string]float64 {
	m := make(map[string]float64, len(stats))
	for _, s := range stats {
		m[s.Keyword] = s.Density
	}
	return m
}

// SEOScore rates length and keyword density on a 0-100 scale.
func SEOScore(words int, stats []KeywordStat) int {
	score := 0
	switch {
	case words >= 1500:
		score += 30
	case words >= 1000:
		score += 20
	case words >= 500:
		score += 10
	}
	for _, s := range stats {
		d := s.Density
		switch {
		case d >= 1.0 && d <= 2.5:
			score += 10
		case (d >= 0.5 && d < 1.0) || (d > 2.5 && d <= 3.0):
			score += 5
		}
	}
	// structure credit
	score += 20
	if score > 100 {
		score = 100
	}
	return score
}

// ReadabilityScore rates average sentence length. Text without sentences scores 0.
func ReadabilityScore(text string) int {
	sentences := 0
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		return 0
	}
	avg := float64(WordCount(text)) / float64(sentences)
	switch {
	case avg <= 15:
		return 90
	case avg <= 20:
		return 80
	case avg <= 25:
		return 70
	default:
		return 60
	}
}

// Optimize analyzes content against target keywords.
func Optimize(text string, keywords []string) Analysis {
	words := WordCount(text)
	stats := KeywordDensity(text, keywords)

	suggestions := make([]string, 0)
	for _, s := range stats {
		switch {
		case s.Density < 1.0:
			suggestions = append(suggestions, fmt.Sprintf("Increase '%s' density (currently %s%%)", s.Keyword, formatFloat(s.Density)))
		case s.Density > 3.0:
			suggestions = append(suggestions, fmt.Sprintf("Reduce '%s' density (currently %s%%)", s.Keyword, formatFloat(s.Density)))
		}
	}
	if words < 1000 {
		suggestions = append(suggestions, fmt.Sprintf("Increase content length (currently %d words)", words))
	}

	return Analysis{
		WordCount:        words,
		KeywordDensity:   stats,
		Suggestions:      suggestions,
		SEOScore:         SEOScore(words, stats),
		ReadabilityScore: ReadabilityScore(text),
	}
}

// HeadingCounts counts markdown and labelled H2/H3 headings.
func HeadingCounts(text string) (h2, h3 int) {
	h3 = strings.Count(text, "### ") + strings.Count(text, "H3:")
	h2 = strings.Count(text, "## ") - strings.Count(text, "### ") + strings.Count(text, "H2:")
	return h2, h3
}

// ReadTime returns minutes to read at 200 words per minute, at least one.
func ReadTime(words int) int {
	m := words / 200
	if m < 1 {
		return 1
	}
	return m
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatFloat prints the shortest exact form with at least one decimal.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
