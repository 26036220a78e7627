package keyword

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metrics(term string, volume int64, difficulty float64, cpc float64, trend ...float64) Metrics {
	return Metrics{
		Keyword:      term,
		SearchVolume: volume,
		Difficulty:   difficulty,
		CPC:          decimal.NewFromFloat(cpc),
		Competition:  CompetitionMedium,
		Trend:        trend,
	}
}

func TestComponentScores(t *testing.T) {
	t.Run("volume is logarithmic", func(t *testing.T) {
		assert.Equal(t, 0.0, VolumeScore(0))
		assert.InDelta(t, 60.0, VolumeScore(1000), 0.0001)
		assert.InDelta(t, 100.0, VolumeScore(100000), 0.0001)
		assert.Equal(t, 100.0, VolumeScore(5000000))
	})

	t.Run("difficulty is inverted and clamped", func(t *testing.T) {
		assert.Equal(t, 80.0, DifficultyScore(20))
		assert.Equal(t, 100.0, DifficultyScore(-5))
		assert.Equal(t, 0.0, DifficultyScore(140))
	})

	t.Run("cpc bands", func(t *testing.T) {
		tests := []struct {
			cpc  float64
			want float64
		}{
			{0, 0},
			{0.25, 10},
			{0.5, 20},
			{1.25, 40},
			{2, 60},
			{6, 80},
			{10, 100},
			{25, 100},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%.2f", tt.cpc), func(t *testing.T) {
				assert.InDelta(t, tt.want, CPCScore(tt.cpc), 0.0001)
			})
		}
	})

	t.Run("trend uses last twelve points", func(t *testing.T) {
		assert.Equal(t, 50.0, TrendScore(nil))
		points := []float64{0, 0}
		for i := 0; i < 12; i++ {
			points = append(points, 60)
		}
		assert.InDelta(t, 60.0, TrendScore(points), 0.0001)
		assert.Equal(t, 100.0, TrendScore([]float64{150, 150}))
	})
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer()

	t.Run("strong keyword", func(t *testing.T) {
		score := s.Score(metrics("wireless earbuds", 100000, 20, 10))
		assert.InDelta(t, 89.0, score.Total, 0.001)
		assert.Equal(t, GradeA, score.Grade)
		assert.Equal(t,
			"Excellent keyword - high priority target | High commercial value - good for monetization",
			score.Recommendation)
	})

	t.Run("weak keyword collects every warning", func(t *testing.T) {
		score := s.Score(metrics("zzz", 0, 90, 0, 10, 20))
		assert.InDelta(t, 4.5, score.Total, 0.001)
		assert.Equal(t, GradeD, score.Grade)
		assert.Equal(t, "Low-value keyword - consider alternatives | "+
			"Low search volume - consider long-tail variations | "+
			"High competition - may be difficult to rank | "+
			"Low commercial intent - focus on traffic volume | "+
			"Declining trend - monitor performance closely", score.Recommendation)
	})
}

func TestGradeFor(t *testing.T) {
	assert.Equal(t, GradeAPlus, GradeFor(95))
	assert.Equal(t, GradeBPlus, GradeFor(70))
	assert.Equal(t, GradeC, GradeFor(40))
	assert.Equal(t, GradeD, GradeFor(39.9))
	assert.Equal(t, 50.0, GradeCPlus.Threshold())
}

func TestScoreAllAndTop(t *testing.T) {
	s := NewScorer()
	scores := s.ScoreAll([]Metrics{
		metrics("low", 10, 90, 0.1),
		metrics("high", 100000, 10, 12, 90),
		metrics("mid", 5000, 50, 2),
	})
	require.Len(t, scores, 3)
	assert.Equal(t, "high", scores[0].Keyword)
	assert.Equal(t, "low", scores[2].Keyword)

	top := Top(scores, 5, GradeC)
	for _, sc := range top {
		assert.GreaterOrEqual(t, sc.Total, 40.0)
	}
	assert.Len(t, Top(scores, 1, GradeD), 1)
}

func TestBuildReport(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r := BuildReport(nil)
		assert.Equal(t, "No keywords to analyze", r.Message)
		assert.Equal(t, 0, r.Summary.TotalKeywords)
	})

	t.Run("summarizes scores", func(t *testing.T) {
		scores := NewScorer().ScoreAll([]Metrics{
			metrics("a", 100000, 20, 10),
			metrics("b", 0, 90, 0, 10),
		})
		r := BuildReport(scores)
		assert.Equal(t, 2, r.Summary.TotalKeywords)
		assert.Equal(t, 1, r.Summary.GradeDistribution[GradeA])
		assert.Equal(t, 1, r.Summary.GradeDistribution[GradeD])
		assert.Len(t, r.TopKeywords, 2)
		assert.Equal(t, "a", r.TopKeywords[0].Keyword)
		assert.Empty(t, r.BottomKeywords[0].Recommendation)
		assert.InDelta(t, 45.0, r.ComponentAnalysis.Difficulty, 0.01)
		assert.Contains(t, r.Recommendations, "High competition detected - consider less competitive alternatives")
		assert.NotContains(t, r.Recommendations, "Low percentage of high-value keywords - expand research")
	})

	t.Run("thresholds use unrounded averages", func(t *testing.T) {
		comp := ComponentScores{Volume: 39.996, Difficulty: 60, CPC: 50, Trend: 60}
		r := BuildReport([]Score{
			{Keyword: "a", Total: 70, Grade: GradeA, Components: comp},
			{Keyword: "b", Total: 70, Grade: GradeA, Components: comp},
		})
		assert.Equal(t, 40.0, r.ComponentAnalysis.Volume)
		assert.Equal(t, []string{"Consider targeting higher volume keywords or focus on long-tail strategy"}, r.Recommendations)
	})
}
