package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/domain/pipeline"
)

// Researcher is the keyword and SERP data source agents use.
type Researcher interface {
	ResearchKeywords(ctx context.Context, seeds []string) ([]keyword.Metrics, error)
	SERPAnalysis(ctx context.Context, term string) (*keyword.SERPResult, error)
}

// briefContext renders the brief as labelled lines for prompts.
func briefContext(b pipeline.Brief) string {
	return fmt.Sprintf("Product: %s\nNiche: %s\nTarget audience: %s\nTarget keywords: %s\nContent length: %s\nBudget: $%s",
		b.ProductName, b.Niche, b.TargetAudience, strings.Join(b.TargetKeywords, ", "), b.ContentLength, b.Budget.StringFixed(0))
}

// clip shortens text passed on to later prompts.
func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// parseSeedList reads comma separated keywords, skipping list items.
// Terms of two characters or fewer are dropped.
func parseSeedList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ",") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "1.") {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			kw := strings.Trim(strings.TrimSpace(part), `"'`)
			if utf8.RuneCountInString(kw) > 2 {
				out = append(out, kw)
			}
		}
	}
	return out
}

var quoted = regexp.MustCompile(`"([^"]*)"`)

// parseLongTail extracts quoted phrases, or whole lines of three or more
// words that are not list items. Phrases of ten characters or fewer are
// dropped; the rest are lowercased and deduplicated.
func parseLongTail(text string) []string {
	var found []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, `"`) {
			for _, m := range quoted.FindAllStringSubmatch(line, -1) {
				found = append(found, m[1])
			}
			continue
		}
		if len(strings.Fields(line)) >= 3 && !hasListMarker(line) {
			found = append(found, line)
		}
	}
	out := make([]string, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, kw := range found {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if utf8.RuneCountInString(kw) <= 10 {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func hasListMarker(line string) bool {
	for _, p := range []string{"1.", "2.", "3.", "-", "*"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func insight(r *Reasoned) pipeline.Insight {
	if r == nil {
		return pipeline.Insight{}
	}
	return pipeline.Insight{Analysis: r.Response, Reasoning: r.Steps, Confidence: r.Confidence}
}

// primaryKeywords are the selected keywords, or the brief's own keywords
// when keyword analysis did not run.
func primaryKeywords(s *pipeline.State, n int) []string {
	if terms := s.KeywordAnalysis.PrimaryTerms(n); len(terms) > 0 {
		return terms
	}
	terms := s.Brief.TargetKeywords
	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
