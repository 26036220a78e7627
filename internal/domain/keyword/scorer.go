package keyword

import (
	"math"
	"sort"
	"strings"
)

// Score weights. They sum to 1.
const (
	WeightVolume     = 0.40
	WeightDifficulty = 0.30
	WeightCPC        = 0.20
	WeightTrend      = 0.10
)

const (
	highVolumeBenchmark = 100000
	highCPC             = 10.0
	mediumCPC           = 2.0
	lowCPC              = 0.5
	neutralTrend        = 50.0
	trendWindow         = 12
)

// Grade is a letter band over the 0-100 keyword score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

var gradeBands = []struct {
	grade Grade
	min   float64
}{
	{GradeAPlus, 90},
	{GradeA, 80},
	{GradeBPlus, 70},
	{GradeB, 60},
	{GradeCPlus, 50},
	{GradeC, 40},
	{GradeD, 0},
}

// Threshold returns the minimum score of a grade. Unknown grades return 0.
func (g Grade) Threshold() float64 {
	for _, b := range gradeBands {
		if b.grade == g {
			return b.min
		}
	}
	return 0
}

// GradeFor maps a score to its grade.
func GradeFor(score float64) Grade {
	for _, b := range gradeBands {
		if score >= b.min {
			return b.grade
		}
	}
	return GradeD
}

// ComponentScores holds the four normalized 0-100 inputs of a keyword score.
type ComponentScores struct {
	Volume     float64 `json:"search_volume"`
	Difficulty float64 `json:"keyword_difficulty"`
	CPC        float64 `json:"cpc"`
	Trend      float64 `json:"trend"`
}

// Score is the weighted value of a keyword.
type Score struct {
	Keyword        string          `json:"keyword"`
	Total          float64         `json:"total_score"`
	Grade          Grade           `json:"grade"`
	Components     ComponentScores `json:"component_scores"`
	Recommendation string          `json:"recommendation"`
	Metrics        Metrics         `json:"metrics"`
}

// VolumeScore scales search volume logarithmically against a 100k benchmark.
func VolumeScore(volume int64) float64 {
	if volume <= 0 {
		return 0
	}
	n := math.Log10(float64(volume)) / math.Log10(highVolumeBenchmark) * 100
	return math.Min(n, 100)
}

// DifficultyScore inverts difficulty so easy keywords score high.
func DifficultyScore(difficulty float64) float64 {
	return 100 - clamp(difficulty, 0, 100)
}

// CPCScore maps cost per click onto piecewise linear bands.
func CPCScore(cpc float64) float64 {
	switch {
	case cpc <= 0:
		return 0
	case cpc >= highCPC:
		return 100
	case cpc >= mediumCPC:
		return 60 + (cpc-mediumCPC)/(highCPC-mediumCPC)*40
	case cpc >= lowCPC:
		return 20 + (cpc-lowCPC)/(mediumCPC-lowCPC)*40
	default:
		return cpc / lowCPC * 20
	}
}

// TrendScore averages the most recent twelve trend points.
func TrendScore(trend []float64) float64 {
	if len(trend) == 0 {
		return neutralTrend
	}
	if len(trend) > trendWindow {
		trend = trend[len(trend)-trendWindow:]
	}
	var sum float64
	for _, v := range trend {
		sum += v
	}
	return clamp(sum/float64(len(trend)), 0, 100)
}

// Scorer computes weighted keyword scores.
type Scorer struct{}

// NewScorer returns a keyword scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the weighted score, grade and recommendation of one keyword.
func (s *Scorer) Score(m Metrics) Score {
	c := ComponentScores{
		Volume:     VolumeScore(m.SearchVolume),
		Difficulty: DifficultyScore(m.Difficulty),
		CPC:        CPCScore(m.CPC.InexactFloat64()),
		Trend:      TrendScore(m.Trend),
	}
	total := c.Volume*WeightVolume + c.Difficulty*WeightDifficulty + c.CPC*WeightCPC + c.Trend*WeightTrend
	return Score{
		Keyword:        m.Keyword,
		Total:          total,
		Grade:          GradeFor(total),
		Components:     c,
		Recommendation: recommend(total, c),
		Metrics:        m,
	}
}

// ScoreAll scores every keyword and sorts the result best first.
func (s *Scorer) ScoreAll(metrics []Metrics) []Score {
	scores := make([]Score, 0, len(metrics))
	for _, m := range metrics {
		scores = append(scores, s.Score(m))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Total > scores[j].Total
	})
	return scores
}

// Top returns at most count scores at or above minGrade. Input must be sorted.
func Top(scores []Score, count int, minGrade Grade) []Score {
	if count <= 0 {
		count = 10
	}
	min := minGrade.Threshold()
	out := make([]Score, 0, count)
	for _, s := range scores {
		if s.Total < min {
			continue
		}
		out = append(out, s)
		if len(out) == count {
			break
		}
	}
	return out
}

func recommend(total float64, c ComponentScores) string {
	parts := make([]string, 0, 4)
	switch {
	case total >= 80:
		parts = append(parts, "Excellent keyword - high priority target")
	case total >= 60:
		parts = append(parts, "Good keyword - consider targeting")
	case total >= 40:
		parts = append(parts, "Moderate keyword - may be worth targeting")
	default:
		parts = append(parts, "Low-value keyword - consider alternatives")
	}
	if c.Volume < 30 {
		parts = append(parts, "Low search volume - consider long-tail variations")
	}
	if c.Difficulty < 40 {
		parts = append(parts, "High competition - may be difficult to rank")
	}
	if c.CPC > 80 {
		parts = append(parts, "High commercial value - good for monetization")
	} else if c.CPC < 20 {
		parts = append(parts, "Low commercial intent - focus on traffic volume")
	}
	if c.Trend < 30 {
		parts = append(parts, "Declining trend - monitor performance closely")
	} else if c.Trend > 70 {
		parts = append(parts, "Rising trend - opportunity for growth")
	}
	return strings.Join(parts, " | ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
