package keyword

// RankedKeyword is a compact view of a score used in reports.
type RankedKeyword struct {
	Keyword        string  `json:"keyword"`
	Score          float64 `json:"score"`
	Grade          Grade   `json:"grade"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// ReportSummary aggregates a scored keyword set.
type ReportSummary struct {
	TotalKeywords     int           `json:"total_keywords"`
	AverageScore      float64       `json:"average_score"`
	GradeDistribution map[Grade]int `json:"grade_distribution"`
}

// Report describes a scored keyword set.
type Report struct {
	Summary           ReportSummary   `json:"summary"`
	TopKeywords       []RankedKeyword `json:"top_keywords"`
	BottomKeywords    []RankedKeyword `json:"bottom_keywords"`
	ComponentAnalysis ComponentScores `json:"component_analysis"`
	Recommendations   []string        `json:"recommendations"`
	Message           string          `json:"message,omitempty"`
}

// BuildReport summarizes scores that are already sorted best first.
func BuildReport(scores []Score) Report {
	if len(scores) == 0 {
		return Report{
			Summary:         ReportSummary{GradeDistribution: map[Grade]int{}},
			TopKeywords:     []RankedKeyword{},
			BottomKeywords:  []RankedKeyword{},
			Recommendations: []string{},
			Message:         "No keywords to analyze",
		}
	}

	dist := make(map[Grade]int)
	var total float64
	var avg ComponentScores
	for _, s := range scores {
		dist[s.Grade]++
		total += s.Total
		avg.Volume += s.Components.Volume
		avg.Difficulty += s.Components.Difficulty
		avg.CPC += s.Components.CPC
		avg.Trend += s.Components.Trend
	}
	n := float64(len(scores))
	avg = ComponentScores{
		Volume:     avg.Volume / n,
		Difficulty: avg.Difficulty / n,
		CPC:        avg.CPC / n,
		Trend:      avg.Trend / n,
	}

	top := scores
	if len(top) > 5 {
		top = top[:5]
	}
	bottom := scores
	if len(bottom) > 5 {
		bottom = bottom[len(bottom)-5:]
	}

	r := Report{
		Summary: ReportSummary{
			TotalKeywords:     len(scores),
			AverageScore:      round2(total / n),
			GradeDistribution: dist,
		},
		TopKeywords:    make([]RankedKeyword, 0, len(top)),
		BottomKeywords: make([]RankedKeyword, 0, len(bottom)),
		ComponentAnalysis: ComponentScores{
			Volume:     round2(avg.Volume),
			Difficulty: round2(avg.Difficulty),
			CPC:        round2(avg.CPC),
			Trend:      round2(avg.Trend),
		},
	}
	for _, s := range top {
		r.TopKeywords = append(r.TopKeywords, RankedKeyword{
			Keyword: s.Keyword, Score: round2(s.Total), Grade: s.Grade, Recommendation: s.Recommendation,
		})
	}
	for _, s := range bottom {
		r.BottomKeywords = append(r.BottomKeywords, RankedKeyword{
			Keyword: s.Keyword, Score: round2(s.Total), Grade: s.Grade,
		})
	}
	r.Recommendations = overallRecommendations(avg, dist, len(scores))
	return r
}

// overallRecommendations compares the unrounded component averages.
func overallRecommendations(avg ComponentScores, dist map[Grade]int, total int) []string {
	recs := make([]string, 0)
	if avg.Volume < 40 {
		recs = append(recs, "Consider targeting higher volume keywords or focus on long-tail strategy")
	}
	if avg.Difficulty < 50 {
		recs = append(recs, "High competition detected - consider less competitive alternatives")
	}
	if avg.CPC < 30 {
		recs = append(recs, "Low commercial intent - supplement with high-value keywords")
	}
	if avg.Trend < 40 {
		recs = append(recs, "Declining trends detected - research emerging keywords")
	}
	high := dist[GradeAPlus] + dist[GradeA]
	if float64(high)/float64(total) < 0.2 {
		recs = append(recs, "Low percentage of high-value keywords - expand research")
	}
	return recs
}
