package pipeline

import (
	"time"

	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/keyword"
)

// Insight is one reasoned LLM analysis.
type Insight struct {
	Analysis   string   `json:"analysis"`
	Reasoning  []string `json:"reasoning,omitempty"`
	Confidence int      `json:"confidence"`
}

// MarketResearch is the output of the market research stage.
type MarketResearch struct {
	CustomerAnalysis   Insight         `json:"customer_analysis"`
	MarketTrends       Insight         `json:"market_trends"`
	CompetitorAnalysis Insight         `json:"competitor_analysis"`
	SellingPoints      Insight         `json:"unique_selling_points"`
	TopCompetitors     []string        `json:"top_competitors,omitempty"`
	Overview           *MarketOverview `json:"market_overview,omitempty"`
	AnalysisAreas      int             `json:"analysis_areas"`
	AvgConfidence      float64         `json:"avg_confidence"`
}

// MarketOverview is a structured chain of thought over the whole market.
type MarketOverview struct {
	Steps      []string `json:"thinking_steps"`
	Conclusion string   `json:"final_conclusion"`
	Confidence float64  `json:"confidence"`
}

// KeywordAnalysis is the output of the keyword analyzer stage.
type KeywordAnalysis struct {
	SeedKeywords       []string                    `json:"seed_keywords"`
	Metrics            []keyword.Metrics           `json:"keyword_metrics"`
	DifficultyBuckets  map[string]int              `json:"difficulty_distribution"`
	DifficultyStrategy string                      `json:"difficulty_strategy"`
	IntentGroups       map[keyword.Intent][]string `json:"intent_groups"`
	IntentStrategy     string                      `json:"intent_strategy"`
	Selection          keyword.Selection           `json:"selection"`
	SelectionStrategy  string                      `json:"selection_strategy"`
	LongTailKeywords   []string                    `json:"long_tail_keywords"`
	ContentClusters    string                      `json:"content_clusters"`
	Report             keyword.Report              `json:"keyword_report"`
	TotalAnalyzed      int                         `json:"total_keywords_analyzed"`
	PrimarySelected    int                         `json:"primary_keywords_selected"`
	LongTailGenerated  int                         `json:"long_tail_keywords_generated"`
	AvgConfidence      float64                     `json:"avg_confidence"`
}

// PrimaryTerms returns up to n primary keywords.
func (k *KeywordAnalysis) PrimaryTerms(n int) []string {
	if k == nil {
		return nil
	}
	return keyword.Terms(k.Selection.Primary, n)
}

// SecondaryTerms returns up to n secondary keywords.
func (k *KeywordAnalysis) SecondaryTerms(n int) []string {
	if k == nil {
		return nil
	}
	return keyword.Terms(k.Selection.Secondary, n)
}

// LongTailTerms returns up to n generated long-tail phrases, falling back to
// long-tail keywords from the selection.
func (k *KeywordAnalysis) LongTailTerms(n int) []string {
	if k == nil {
		return nil
	}
	terms := k.LongTailKeywords
	if len(terms) == 0 {
		terms = keyword.Terms(k.Selection.LongTail, 0)
	}
	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// KeywordPlacement is the planned use of keywords in the article.
type KeywordPlacement struct {
	Primary          []string        `json:"primary_keywords"`
	Secondary        []string        `json:"secondary_keywords"`
	LongTail         []string        `json:"long_tail_keywords"`
	Targets          content.Targets `json:"targets"`
	PrimaryDensity   string          `json:"primary_density"`
	SecondaryDensity string          `json:"secondary_density"`
	Strategy         string          `json:"strategy"`
}

// ContentPlan is the output of the content planner stage.
type ContentPlan struct {
	Requirements     string           `json:"requirements"`
	OutlineText      string           `json:"outline_text"`
	Outline          content.Outline  `json:"outline"`
	EstimatedWords   int              `json:"estimated_word_count"`
	Headers          []content.Header `json:"header_hierarchy"`
	KeywordPlacement KeywordPlacement `json:"keyword_placement"`
	SectionDesign    string           `json:"section_design"`
	InternalLinking  string           `json:"internal_linking"`
	CTAStrategy      string           `json:"cta_strategy"`
}

// SEOOptimization is the output of the SEO optimizer stage.
type SEOOptimization struct {
	MetaText           string                 `json:"meta_text"`
	MetaTags           content.MetaTags       `json:"meta_tags"`
	SchemaMarkup       string                 `json:"schema_markup"`
	URLVariations      []content.URLVariation `json:"url_variations"`
	URLStrategy        string                 `json:"url_strategy"`
	TechnicalSEO       string                 `json:"technical_seo"`
	FeaturedSnippets   string                 `json:"featured_snippets"`
	MobileOptimization string                 `json:"mobile_optimization"`
	PageSpeed          string                 `json:"page_speed"`
	OptimizationAreas  int                    `json:"optimization_areas"`
}

// SectionStats describes the main body of a draft.
type SectionStats struct {
	WordCount        int            `json:"word_count"`
	H2Count          int            `json:"h2_count"`
	H3Count          int            `json:"h3_count"`
	AvgSectionLength int            `json:"average_section_length"`
	KeywordMentions  map[string]int `json:"keyword_mentions"`
	TotalDensity     float64        `json:"total_keyword_density"`
}

// ContentDraft is the output of the content writer stage.
type ContentDraft struct {
	Introduction     string       `json:"introduction"`
	MainContent      string       `json:"main_content"`
	MainStats        SectionStats `json:"main_content_stats"`
	Conclusion       string       `json:"conclusion"`
	FAQ              string       `json:"faq"`
	InternalLinks    string       `json:"internal_links"`
	FlowNotes        string       `json:"flow_notes"`
	CompleteArticle  string       `json:"complete_article"`
	TotalWords       int          `json:"total_word_count"`
	ReadTimeMinutes  int          `json:"estimated_read_time"`
	QualityScore     int          `json:"quality_score"`
	PublicationReady bool         `json:"publication_ready"`
}

// QualityReport is the output of the quality checker stage.
type QualityReport struct {
	ContentScores     map[string]int           `json:"content_quality_scores"`
	SEOScores         map[string]int           `json:"seo_scores"`
	KeywordDensity    map[string]float64       `json:"keyword_density"`
	ReadabilityScores map[string]int           `json:"readability_scores"`
	LocalReadability  int                      `json:"local_readability_score"`
	Errors            content.ErrorSummary     `json:"error_summary"`
	EngagementScores  map[string]int           `json:"engagement_scores"`
	OriginalityScores map[string]int           `json:"originality_scores"`
	RiskLevel         string                   `json:"plagiarism_risk_level"`
	Recommendations   string                   `json:"recommendations"`
	Breakdown         content.QualityBreakdown `json:"score_breakdown"`
	OverallScore      int                      `json:"overall_quality_score"`
	Grade             string                   `json:"quality_grade"`
	PublicationReady  bool                     `json:"publication_ready"`
}

// Publication is the output of the publisher stage.
type Publication struct {
	Title           string    `json:"title"`
	MetaTitle       string    `json:"meta_title"`
	MetaDescription string    `json:"meta_description"`
	Excerpt         string    `json:"excerpt"`
	Keywords        []string  `json:"keywords"`
	FocusKeyword    string    `json:"focus_keyword"`
	Categories      []string  `json:"categories"`
	Tags            []string  `json:"tags"`
	HTML            string    `json:"html"`
	PostID          int64     `json:"post_id"`
	PostURL         string    `json:"post_url"`
	EditURL         string    `json:"edit_url"`
	Status          string    `json:"status"`
	PublishedAt     time.Time `json:"published_at"`
	TrackingCode    string    `json:"tracking_code,omitempty"`
	TrackedMetrics  []string  `json:"tracked_metrics,omitempty"`
}
