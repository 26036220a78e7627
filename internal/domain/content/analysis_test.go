package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordDensity(t *testing.T) {
	text := "Wireless earbuds are great. These wireless EARBUDS last long. Buy earbuds."
	stats := KeywordDensity(text, []string{"wireless earbuds", "", "earbuds"})

	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[0].Occurrences)
	assert.Equal(t, 18.18, stats[0].Density)
	assert.Equal(t, 3, stats[1].Occurrences)
	assert.Equal(t, 27.27, stats[1].Density)

	deduped := KeywordDensity(text, []string{"earbuds", "Earbuds", " earbuds "})
	require.Len(t, deduped, 1)
	assert.Equal(t, "earbuds", deduped[0].Keyword)

	assert.Empty(t, KeywordDensity("", nil))
	assert.Equal(t, 0.0, KeywordDensity("", []string{"x"})[0].Density)
}

func TestSEOScore(t *testing.T) {
	tests := []struct {
		name  string
		words int
		stats []KeywordStat
		want  int
	}{
		{"short without keywords", 100, nil, 20},
		{"medium length", 600, nil, 30},
		{"long with ideal density", 1600, []KeywordStat{{Density: 1.5}, {Density: 0.7}, {Density: 2.8}, {Density: 5}}, 70},
		{"capped at 100", 2000, []KeywordStat{{Density: 1}, {Density: 1}, {Density: 1}, {Density: 1}, {Density: 1}, {Density: 1}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SEOScore(tt.words, tt.stats))
		})
	}
}

func TestOptimize_RepeatedKeywordScoredOnce(t *testing.T) {
	text := "widget " + strings.Repeat("case ", 99)
	once := Optimize(text, []string{"widget"})
	twice := Optimize(text, []string{"widget", "WIDGET"})

	assert.Equal(t, 30, once.SEOScore)
	assert.Equal(t, once.SEOScore, twice.SEOScore)
	assert.Len(t, twice.KeywordDensity, 1)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.0", formatFloat(0))
	assert.Equal(t, "2.0", formatFloat(2))
	assert.Equal(t, "1.25", formatFloat(1.25))
	assert.Equal(t, "49.5", formatFloat(49.5))
}

func TestOptimize_WholeDensityKeepsDecimal(t *testing.T) {
	text := strings.Repeat("earbuds ", 4) + strings.Repeat("word ", 96)
	a := Optimize(text, []string{"earbuds", "missing"})

	assert.Equal(t, []string{
		"Reduce 'earbuds' density (currently 4.0%)",
		"Increase 'missing' density (currently 0.0%)",
		"Increase content length (currently 100 words)",
	}, a.Suggestions)
}

func TestReadabilityScore(t *testing.T) {
	assert.Equal(t, 0, ReadabilityScore(""))
	assert.Equal(t, 0, ReadabilityScore(" . . "))
	assert.Equal(t, 90, ReadabilityScore("Short sentence here. Another one."))
	long := strings.Repeat("word ", 30) + "."
	assert.Equal(t, 60, ReadabilityScore(long))
	mid := strings.Repeat("word ", 18) + "."
	assert.Equal(t, 80, ReadabilityScore(mid))
}

func TestOptimize(t *testing.T) {
	text := "Earbuds review. " + strings.Repeat("filler text ", 100)
	a := Optimize(text, []string{"earbuds", "filler text"})

	assert.Equal(t, 202, a.WordCount)
	assert.Equal(t, []string{
		"Increase 'earbuds' density (currently 0.5%)",
		"Reduce 'filler text' density (currently 49.5%)",
		"Increase content length (currently 202 words)",
	}, a.Suggestions)
	assert.Equal(t, 25, a.SEOScore)
	assert.Equal(t, 60, a.ReadabilityScore)
}

func TestHeadingCountsAndReadTime(t *testing.T) {
	h2, h3 := HeadingCounts("## One\n### Sub\n## Two\nH2: Three\nH3: Four")
	assert.Equal(t, 3, h2)
	assert.Equal(t, 2, h3)

	assert.Equal(t, 1, ReadTime(50))
	assert.Equal(t, 12, ReadTime(2450))
}
