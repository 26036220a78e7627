package content

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultScore is assumed for any label the reviewer did not report.
const DefaultScore = 85

// DefaultPlagiarismRisk is assumed when no plagiarism risk is reported.
const DefaultPlagiarismRisk = 20

// ScoreLabel binds a "Label: N" pattern in review text to a result key.
type ScoreLabel struct {
	Label string
	Key   string
}

// Label sets of the quality review passes. The last entry of each set is its overall score.
var (
	QualityLabels = []ScoreLabel{
		{"Content Depth", "content_depth"},
		{"Writing Quality", "writing_quality"},
		{"Structure Quality", "structure_quality"},
		{"Audience Fit", "audience_fit"},
		{"Engagement Factor", "engagement_factor"},
		{"Conversion Potential", "conversion_potential"},
		{"Technical Accuracy", "technical_accuracy"},
		{"Originality", "originality"},
		{"Overall Quality Score", "overall_score"},
	}
	SEOLabels = []ScoreLabel{
		{"Keyword Optimization", "keyword_optimization"},
		{"On-Page SEO", "on_page_seo"},
		{"Technical SEO", "technical_seo"},
		{"Content SEO", "content_seo"},
		{"Featured Snippets", "featured_snippets"},
		{"E-A-T Factors", "eat_factors"},
		{"Overall SEO Score", "overall_seo_score"},
	}
	ReadabilityLabels = []ScoreLabel{
		{"Reading Level", "reading_level"},
		{"Sentence Structure", "sentence_structure"},
		{"Paragraph Quality", "paragraph_quality"},
		{"Vocabulary Clarity", "vocabulary_clarity"},
		{"Content Organization", "content_organization"},
		{"Mobile Readability", "mobile_readability"},
		{"Overall Readability", "overall_readability"},
	}
	EngagementLabels = []ScoreLabel{
		{"Hook Effectiveness", "hook_effectiveness"},
		{"Interest Maintenance", "interest_maintenance"},
		{"Emotional Connection", "emotional_connection"},
		{"Visual Engagement", "visual_engagement"},
		{"Interactive Elements", "interactive_elements"},
		{"Value Delivery", "value_delivery"},
		{"Conversational Tone", "conversational_tone"},
		{"Content Variety", "content_variety"},
		{"Audience Connection", "audience_connection"},
		{"Overall Engagement", "overall_engagement"},
	}
	OriginalityLabels = []ScoreLabel{
		{"Content Originality", "content_originality"},
		{"Source Attribution", "source_attribution"},
		{"Unique Insights", "unique_insights"},
		{"Plagiarism Risk", "plagiarism_risk"},
		{"Overall Originality", "overall_originality"},
	}
)

var labelPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, set := range [][]ScoreLabel{QualityLabels, SEOLabels, ReadabilityLabels, EngagementLabels, OriginalityLabels} {
		for _, l := range set {
			labelPatterns[l.Label] = regexp.MustCompile(`(?m)(?:^|[^A-Za-z])` + regexp.QuoteMeta(l.Label) + `:\s*(\d+)`)
		}
	}
}

// ParseScores reads "Label: N" values capped at 100. Missing labels get
// DefaultScore. When averageOverall is set and the overall score (the last
// label) is still the default, it becomes the integer mean of the others.
func ParseScores(text string, labels []ScoreLabel, averageOverall bool) map[string]int {
	scores := make(map[string]int, len(labels))
	for _, l := range labels {
		scores[l.Key] = DefaultScore
		re, ok := labelPatterns[l.Label]
		if !ok {
			re = regexp.MustCompile(regexp.QuoteMeta(l.Label) + `:\s*(\d+)`)
		}
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				scores[l.Key] = min(n, 100)
			}
		}
	}
	if !averageOverall || len(labels) < 2 {
		return scores
	}
	overall := labels[len(labels)-1].Key
	if scores[overall] == DefaultScore {
		sum := 0
		for _, l := range labels[:len(labels)-1] {
			sum += scores[l.Key]
		}
		scores[overall] = sum / (len(labels) - 1)
	}
	return scores
}

// ParseOriginality reads originality scores. Plagiarism risk defaults to 20
// and the overall score is never averaged.
func ParseOriginality(text string) map[string]int {
	scores := ParseScores(text, OriginalityLabels, false)
	if !labelPatterns["Plagiarism Risk"].MatchString(text) {
		scores["plagiarism_risk"] = DefaultPlagiarismRisk
	}
	return scores
}

// QualityBreakdown holds the overall score of each review pass.
type QualityBreakdown struct {
	ContentQuality int `json:"content_quality"`
	SEOCompliance  int `json:"seo_compliance"`
	Readability    int `json:"readability"`
	Engagement     int `json:"engagement"`
	Originality    int `json:"originality"`
}

// OverallQuality weights the passes 25/25/20/20/10 and truncates.
func OverallQuality(b QualityBreakdown) int {
	v := 0.25*float64(b.ContentQuality) +
		0.25*float64(b.SEOCompliance) +
		0.20*float64(b.Readability) +
		0.20*float64(b.Engagement) +
		0.10*float64(b.Originality)
	// guard float error such as 84.99999 for an all-85 breakdown
	return int(v + 1e-9)
}

// PublicationThreshold is the minimum overall score to publish.
const PublicationThreshold = 80

// QualityGrade maps an overall score to a letter grade.
func QualityGrade(score int) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	default:
		return "D"
	}
}

// PlagiarismRiskLevel maps a plagiarism risk score to a level.
func PlagiarismRiskLevel(risk int) string {
	switch {
	case risk <= 20:
		return "Low"
	case risk <= 40:
		return "Medium"
	case risk <= 60:
		return "High"
	default:
		return "Critical"
	}
}

// ErrorSummary counts severity mentions in an error review.
type ErrorSummary struct {
	Critical int `json:"critical_errors"`
	High     int `json:"high_errors"`
	Medium   int `json:"medium_errors"`
	Low      int `json:"low_errors"`
	Total    int `json:"total_errors"`
}

// SummarizeErrors counts case-insensitive severity substrings, capped at
// 5/10/15/20 and 50 in total. Substrings inside other words count too, so
// "below" is a low mention.
func SummarizeErrors(text string) ErrorSummary {
	lower := strings.ToLower(text)
	c := strings.Count(lower, "critical")
	h := strings.Count(lower, "high")
	m := strings.Count(lower, "medium")
	l := strings.Count(lower, "low")
	return ErrorSummary{
		Critical: min(c, 5),
		High:     min(h, 10),
		Medium:   min(m, 15),
		Low:      min(l, 20),
		Total:    min(c+h+m+l, 50),
	}
}
