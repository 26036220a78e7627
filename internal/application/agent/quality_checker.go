package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// reviewLength bounds how much of the draft goes into each review prompt.
const reviewLength = 6000

// QualityChecker scores the draft and decides whether it can be published.
type QualityChecker struct {
	Base
}

// NewQualityChecker creates the quality checker.
func NewQualityChecker(client llm.Client, pc config.PipelineConfig, logger *zap.Logger) *QualityChecker {
	cfg := DefaultConfig(string(pipeline.StageQualityChecker), "Scores content quality, SEO, readability and originality").WithPipeline(pc)
	cfg.Temperature = 0.3
	return &QualityChecker{Base: NewBase(cfg, client, logger)}
}

func (a *QualityChecker) Stage() pipeline.StageName { return pipeline.StageQualityChecker }

func (a *QualityChecker) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	draft := state.ContentDraft
	if draft == nil || strings.TrimSpace(draft.CompleteArticle) == "" {
		return nil, fmt.Errorf("%w: content draft", ErrMissingInput)
	}
	b := state.Brief
	text := draft.CompleteArticle
	excerpt := clip(text, reviewLength)
	primary := primaryKeywords(state, 5)
	out := &pipeline.QualityReport{}

	review := func(ctx context.Context, role, focus string, labels []content.ScoreLabel, label string) (*Reasoned, error) {
		return a.Reason(ctx, role, fmt.Sprintf(`Review this blog post about %s for %s.
Report each score on its own line as "Label: N" (0-100) using these labels:
%s

Post:
%s`, b.ProductName, focus, scoreLabelList(labels), excerpt), label)
	}

	steps := []Step{
		{Name: "content_quality", Progress: 15, Label: "Assessing content quality", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := review(ctx, "You are a senior content editor.", "overall content quality and fit for "+b.TargetAudience, content.QualityLabels, "Assessing content quality")
			if r != nil {
				out.ContentScores = content.ParseScores(r.Response, content.QualityLabels, true)
			}
			return r, err
		}},
		{Name: "seo_compliance", Progress: 30, Label: "Checking SEO compliance", Run: func(ctx context.Context) (*Reasoned, error) {
			out.KeywordDensity = content.DensityMap(content.KeywordDensity(text, primary))
			r, err := review(ctx, "You are an SEO auditor.", fmt.Sprintf("SEO compliance. Measured keyword density: %s", formatDensity(out.KeywordDensity)), content.SEOLabels, "Checking SEO compliance")
			if r != nil {
				out.SEOScores = content.ParseScores(r.Response, content.SEOLabels, true)
			}
			return r, err
		}},
		{Name: "readability", Progress: 45, Label: "Analyzing readability", Run: func(ctx context.Context) (*Reasoned, error) {
			out.LocalReadability = content.ReadabilityScore(text)
			r, err := review(ctx, "You are a readability specialist.", fmt.Sprintf("readability. The local readability score is %d", out.LocalReadability), content.ReadabilityLabels, "Analyzing readability")
			if r != nil {
				out.ReadabilityScores = content.ParseScores(r.Response, content.ReadabilityLabels, true)
			}
			return r, err
		}},
		{Name: "error_detection", Progress: 60, Label: "Detecting errors", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a meticulous proofreader.", fmt.Sprintf(`List grammar, spelling, factual and formatting errors in this post about %s.
Tag each error with a severity of critical, high, medium or low.

Post:
%s`, b.ProductName, excerpt), "Detecting errors")
			if r != nil {
				out.Errors = content.SummarizeErrors(r.Response)
			}
			return r, err
		}},
		{Name: "engagement", Progress: 75, Label: "Evaluating engagement", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := review(ctx, "You are an audience engagement analyst.", "reader engagement", content.EngagementLabels, "Evaluating engagement")
			if r != nil {
				out.EngagementScores = content.ParseScores(r.Response, content.EngagementLabels, true)
			}
			return r, err
		}},
		{Name: "originality", Progress: 85, Label: "Checking originality", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := review(ctx, "You are an originality and plagiarism reviewer.", "originality and plagiarism risk", content.OriginalityLabels, "Checking originality")
			if r != nil {
				out.OriginalityScores = content.ParseOriginality(r.Response)
				out.RiskLevel = content.PlagiarismRiskLevel(out.OriginalityScores["plagiarism_risk"])
			}
			return r, err
		}},
		{Name: "recommendations", Progress: 95, Label: "Compiling recommendations", Run: func(ctx context.Context) (*Reasoned, error) {
			out.Breakdown = content.QualityBreakdown{
				ContentQuality: scoreOr(out.ContentScores, "overall_score"),
				SEOCompliance:  scoreOr(out.SEOScores, "overall_seo_score"),
				Readability:    scoreOr(out.ReadabilityScores, "overall_readability"),
				Engagement:     scoreOr(out.EngagementScores, "overall_engagement"),
				Originality:    scoreOr(out.OriginalityScores, "overall_originality"),
			}
			out.OverallScore = content.OverallQuality(out.Breakdown)
			out.Grade = content.QualityGrade(out.OverallScore)
			out.PublicationReady = out.OverallScore >= content.PublicationThreshold
			r, err := a.Reason(ctx, "You are a content quality lead.", fmt.Sprintf(`Recommend improvements for the post about %s.
Overall score: %d (%s)
Errors found: %d critical, %d high, %d medium, %d low
Plagiarism risk: %s

Prioritise the changes with the biggest impact.`, b.ProductName, out.OverallScore, out.Grade,
				out.Errors.Critical, out.Errors.High, out.Errors.Medium, out.Errors.Low, out.RiskLevel), "Compiling recommendations")
			if r != nil {
				out.Recommendations = r.Response
			}
			return r, err
		}},
	}

	trace, err := RunSteps(ctx, steps, report, a.cfg.DefaultConfidence)
	if err != nil {
		return nil, err
	}
	return &Result{
		Artifact:   out,
		Reasoning:  trace.Reasoning,
		Confidence: trace.Confidence,
		Metadata: map[string]any{
			"overall_quality_score": out.OverallScore,
			"quality_grade":         out.Grade,
			"publication_ready":     out.PublicationReady,
		},
	}, nil
}

func scoreLabelList(labels []content.ScoreLabel) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Label)
	}
	return strings.Join(names, ", ")
}

func scoreOr(scores map[string]int, key string) int {
	if v, ok := scores[key]; ok {
		return v
	}
	return content.DefaultScore
}

func formatDensity(d map[string]float64) string {
	if len(d) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(d))
	for k, v := range d {
		parts = append(parts, fmt.Sprintf("%s=%.2f%%", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
