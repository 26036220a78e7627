package keyword

import (
	"sort"
	"strings"
)

// Difficulty buckets.
const (
	DifficultyEasy     = "easy"
	DifficultyMedium   = "medium"
	DifficultyHard     = "hard"
	DifficultyVeryHard = "very_hard"
)

// Volume buckets.
const (
	VolumeLow      = "low"
	VolumeMedium   = "medium"
	VolumeHigh     = "high"
	VolumeVeryHigh = "very_high"
)

// Intent is the search intent behind a keyword.
type Intent string

const (
	IntentInformational Intent = "informational"
	IntentCommercial    Intent = "commercial"
	IntentTransactional Intent = "transactional"
	IntentNavigational  Intent = "navigational"
)

// Intents lists intents in classification order.
var Intents = []Intent{IntentInformational, IntentCommercial, IntentTransactional, IntentNavigational}

var intentPatterns = map[Intent][]string{
	IntentInformational: {"how to", "what is", "why", "guide", "tutorial", "learn", "explain", "definition"},
	IntentCommercial:    {"best", "review", "comparison", "vs", "top", "compare", "rating", "recommendation"},
	IntentTransactional: {"buy", "price", "cost", "cheap", "deal", "discount", "order", "purchase", "shop"},
	IntentNavigational:  {"brand", "official", "website", "login", "download"},
}

// DifficultyBucket places a difficulty value in its bucket.
func DifficultyBucket(difficulty float64) string {
	switch {
	case difficulty <= 30:
		return DifficultyEasy
	case difficulty <= 60:
		return DifficultyMedium
	case difficulty <= 80:
		return DifficultyHard
	default:
		return DifficultyVeryHard
	}
}

// VolumeBucket places a search volume in its bucket.
func VolumeBucket(volume int64) string {
	switch {
	case volume <= 1000:
		return VolumeLow
	case volume <= 10000:
		return VolumeMedium
	case volume <= 50000:
		return VolumeHigh
	default:
		return VolumeVeryHigh
	}
}

// ClassifyIntent returns the first intent whose pattern occurs in the keyword.
func ClassifyIntent(term string) Intent {
	lower := strings.ToLower(term)
	for _, intent := range Intents {
		for _, p := range intentPatterns[intent] {
			if strings.Contains(lower, p) {
				return intent
			}
		}
	}
	return IntentInformational
}

// GroupByIntent classifies each keyword and groups the terms.
func GroupByIntent(metrics []Metrics) map[Intent][]string {
	groups := make(map[Intent][]string, len(Intents))
	for _, i := range Intents {
		groups[i] = []string{}
	}
	for _, m := range metrics {
		i := ClassifyIntent(m.Keyword)
		groups[i] = append(groups[i], m.Keyword)
	}
	return groups
}

// GroupByDifficulty buckets each keyword by difficulty.
func GroupByDifficulty(metrics []Metrics) map[string][]Metrics {
	groups := map[string][]Metrics{
		DifficultyEasy:     {},
		DifficultyMedium:   {},
		DifficultyHard:     {},
		DifficultyVeryHard: {},
	}
	for _, m := range metrics {
		b := DifficultyBucket(m.Difficulty)
		groups[b] = append(groups[b], m)
	}
	return groups
}

// CompositeScore rates a keyword for selection on a 0-100 point scale.
func CompositeScore(m Metrics) int {
	score := 0
	switch v := m.SearchVolume; {
	case v >= 10000:
		score += 40
	case v >= 5000:
		score += 30
	case v >= 1000:
		score += 20
	case v >= 500:
		score += 10
	default:
		score += 5
	}
	switch d := m.Difficulty; {
	case d <= 20:
		score += 30
	case d <= 40:
		score += 20
	case d <= 60:
		score += 10
	case d <= 80:
		score += 5
	}
	switch c := m.CPC.InexactFloat64(); {
	case c >= 5:
		score += 20
	case c >= 2:
		score += 15
	case c >= 1:
		score += 10
	case c >= 0.5:
		score += 5
	}
	switch w := m.WordCount(); {
	case w >= 4:
		score += 10
	case w == 3:
		score += 5
	}
	return score
}

// ScoredKeyword pairs metrics with their composite score.
type ScoredKeyword struct {
	Metrics
	CompositeScore int    `json:"composite_score"`
	Intent         Intent `json:"intent"`
}

// Selection splits a keyword set into primary, secondary and long-tail targets.
type Selection struct {
	Primary   []ScoredKeyword `json:"primary_keywords"`
	Secondary []ScoredKeyword `json:"secondary_keywords"`
	LongTail  []ScoredKeyword `json:"long_tail_keywords"`
}

// Selection sizes.
const (
	PrimaryLimit   = 15
	SecondaryLimit = 30
	LongTailLimit  = 20
)

// Select ranks keywords by composite score and splits them.
func Select(metrics []Metrics) Selection {
	ranked := make([]ScoredKeyword, 0, len(metrics))
	for _, m := range metrics {
		ranked = append(ranked, ScoredKeyword{Metrics: m, CompositeScore: CompositeScore(m), Intent: ClassifyIntent(m.Keyword)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})

	sel := Selection{
		Primary:   window(ranked, 0, PrimaryLimit),
		Secondary: window(ranked, PrimaryLimit, SecondaryLimit),
		LongTail:  []ScoredKeyword{},
	}
	for _, k := range ranked {
		if k.WordCount() >= 4 {
			sel.LongTail = append(sel.LongTail, k)
			if len(sel.LongTail) == LongTailLimit {
				break
			}
		}
	}
	return sel
}

// Terms returns the keyword strings of at most n entries.
func Terms(keywords []ScoredKeyword, n int) []string {
	if n <= 0 || n > len(keywords) {
		n = len(keywords)
	}
	out := make([]string, 0, n)
	for _, k := range keywords[:n] {
		out = append(out, k.Keyword)
	}
	return out
}

func window(items []ScoredKeyword, from, to int) []ScoredKeyword {
	if from >= len(items) {
		return []ScoredKeyword{}
	}
	if to > len(items) {
		to = len(items)
	}
	out := make([]ScoredKeyword, to-from)
	copy(out, items[from:to])
	return out
}
