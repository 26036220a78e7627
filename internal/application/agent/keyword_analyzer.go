package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/keyword"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// ToolKeywordResearch fetches metrics for seed keywords.
const ToolKeywordResearch = "keyword_research"

// maxResearchSeeds bounds how many seeds are sent to the SEO sources.
const maxResearchSeeds = 20

// KeywordAnalyzer researches, scores and selects keywords.
type KeywordAnalyzer struct {
	Base
	tools  *Toolbox
	scorer *keyword.Scorer
}

// NewKeywordAnalyzer creates the keyword analyzer. seo is required.
func NewKeywordAnalyzer(client llm.Client, seo Researcher, pc config.PipelineConfig, logger *zap.Logger) *KeywordAnalyzer {
	cfg := DefaultConfig(string(pipeline.StageKeywordAnalyzer), "Researches, scores and selects target keywords").WithPipeline(pc)
	cfg.Temperature = 0.6
	a := &KeywordAnalyzer{Base: NewBase(cfg, client, logger), tools: NewToolbox(), scorer: keyword.NewScorer()}
	if seo != nil {
		a.tools.Register(ToolKeywordResearch, func(ctx context.Context, seeds ...string) (any, error) {
			return seo.ResearchKeywords(ctx, seeds)
		})
	}
	return a
}

func (a *KeywordAnalyzer) Stage() pipeline.StageName { return pipeline.StageKeywordAnalyzer }

func (a *KeywordAnalyzer) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	if !a.tools.Has(ToolKeywordResearch) {
		return nil, fmt.Errorf("%w: keyword research source", ErrMissingInput)
	}
	b := state.Brief
	brief := briefContext(b)
	out := &pipeline.KeywordAnalysis{}

	steps := []Step{
		{Name: "seed_research", Progress: 15, Label: "Researching seed keywords", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a keyword research specialist with deep understanding of search behavior.", fmt.Sprintf(`Generate seed keywords for %s in the %s niche.
%s

Consider product variations and synonyms, informational, commercial and
transactional intent, problems the product solves, competitor and category
terms, and specific use cases.
Provide 30-50 additional seed keywords as a comma-separated list on one line.`, b.ProductName, b.Niche, brief), "Generating seed keywords for research")
			if err != nil {
				return nil, err
			}
			seeds := keyword.Dedupe(append(append([]string{}, b.TargetKeywords...), parseSeedList(r.Response)...))
			if len(seeds) > maxResearchSeeds {
				seeds = seeds[:maxResearchSeeds]
			}
			out.SeedKeywords = seeds
			v, err := a.tools.Call(ctx, ToolKeywordResearch, seeds...)
			if err != nil {
				return nil, err
			}
			out.Metrics, _ = v.([]keyword.Metrics)
			return r, nil
		}},
		{Name: "difficulty_analysis", Progress: 30, Label: "Analyzing keyword difficulty", Run: func(ctx context.Context) (*Reasoned, error) {
			out.DifficultyBuckets = map[string]int{}
			for bucket, ms := range keyword.GroupByDifficulty(out.Metrics) {
				out.DifficultyBuckets[bucket] = len(ms)
			}
			volumes := map[string]int{}
			for _, m := range out.Metrics {
				volumes[keyword.VolumeBucket(m.SearchVolume)]++
			}
			r, err := a.Reason(ctx, "You are an SEO strategist.", fmt.Sprintf(`Recommend a keyword difficulty strategy for %s.
Difficulty distribution: %s
Volume distribution: %s

Explain which difficulty tiers to target first and how to build authority over time.`, b.ProductName, formatCounts(out.DifficultyBuckets), formatCounts(volumes)), "Analyzing keyword difficulty and volume distribution")
			if r != nil {
				out.DifficultyStrategy = r.Response
			}
			return r, err
		}},
		{Name: "intent_classification", Progress: 45, Label: "Classifying search intent", Run: func(ctx context.Context) (*Reasoned, error) {
			out.IntentGroups = keyword.GroupByIntent(out.Metrics)
			counts := map[string]int{}
			for intent, terms := range out.IntentGroups {
				counts[string(intent)] = len(terms)
			}
			r, err := a.Reason(ctx, "You are a search intent analyst.", fmt.Sprintf(`Recommend a content strategy by search intent for %s.
Intent distribution: %s

Explain how each intent should shape the blog post.`, b.ProductName, formatCounts(counts)), "Classifying keywords by search intent")
			if r != nil {
				out.IntentStrategy = r.Response
			}
			return r, err
		}},
		{Name: "primary_selection", Progress: 60, Label: "Selecting primary keywords", Run: func(ctx context.Context) (*Reasoned, error) {
			out.Selection = keyword.Select(out.Metrics)
			var lines []string
			for _, k := range out.Selection.Primary[:min(5, len(out.Selection.Primary))] {
				lines = append(lines, fmt.Sprintf("- %s (volume %d, difficulty %.0f, score %d)", k.Keyword, k.SearchVolume, k.Difficulty, k.CompositeScore))
			}
			r, err := a.Reason(ctx, "You are an SEO strategist selecting target keywords.", fmt.Sprintf(`Review the top ranked keywords for %s and recommend how to prioritise them.
%s`, b.ProductName, strings.Join(lines, "\n")), "Selecting primary keywords by composite score")
			if r != nil {
				out.SelectionStrategy = r.Response
			}
			return r, err
		}},
		{Name: "long_tail_expansion", Progress: 75, Label: "Expanding long-tail keywords", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a long-tail keyword specialist.", fmt.Sprintf(`Expand these primary keywords for %s into long-tail search phrases.
Primary keywords: %s

Give question phrases, comparisons and specific use cases, one per line in double quotes.`, b.ProductName, orNone(out.PrimaryTerms(10))), "Expanding primary keywords into long-tail opportunities")
			if r != nil {
				out.LongTailKeywords = parseLongTail(r.Response)
			}
			return r, err
		}},
		{Name: "content_clusters", Progress: 90, Label: "Creating content clusters", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a content strategist building topic clusters.", fmt.Sprintf(`Group the keywords for %s into topic clusters with a pillar topic and supporting posts.
Primary keywords: %s
Long-tail keywords: %s`, b.ProductName, orNone(out.PrimaryTerms(10)), orNone(out.LongTailTerms(20))), "Creating content clusters")
			if r != nil {
				out.ContentClusters = r.Response
			}
			return r, err
		}},
	}

	trace, err := RunSteps(ctx, steps, report, a.cfg.DefaultConfidence)
	if err != nil {
		return nil, err
	}
	out.Report = keyword.BuildReport(a.scorer.ScoreAll(out.Metrics))
	out.TotalAnalyzed = len(out.Metrics)
	out.PrimarySelected = len(out.Selection.Primary)
	out.LongTailGenerated = len(out.LongTailKeywords)
	out.AvgConfidence = float64(trace.Confidence)
	return &Result{
		Artifact:   out,
		Reasoning:  trace.Reasoning,
		Confidence: trace.Confidence,
		Metadata: map[string]any{
			"total_keywords_analyzed":      out.TotalAnalyzed,
			"primary_keywords_selected":    out.PrimarySelected,
			"long_tail_keywords_generated": out.LongTailGenerated,
		},
	}, nil
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
