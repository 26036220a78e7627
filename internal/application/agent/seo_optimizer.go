package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// SEOOptimizer produces meta tags, schema markup and technical SEO guidance.
type SEOOptimizer struct {
	Base
	now func() time.Time
}

// NewSEOOptimizer creates the SEO optimizer.
func NewSEOOptimizer(client llm.Client, pc config.PipelineConfig, logger *zap.Logger) *SEOOptimizer {
	cfg := DefaultConfig(string(pipeline.StageSEOOptimizer), "Optimizes meta tags, schema, URLs and technical SEO").WithPipeline(pc)
	cfg.Temperature = 0.5
	return &SEOOptimizer{Base: NewBase(cfg, client, logger), now: time.Now}
}

func (a *SEOOptimizer) Stage() pipeline.StageName { return pipeline.StageSEOOptimizer }

func (a *SEOOptimizer) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	b := state.Brief
	brief := briefContext(b)
	primary := primaryKeywords(state, 5)
	focus := ""
	if len(primary) > 0 {
		focus = primary[0]
	}
	title := ""
	if state.ContentPlan != nil {
		title = state.ContentPlan.Outline.Title
	}
	out := &pipeline.SEOOptimization{OptimizationAreas: 7}

	steps := []Step{
		{Name: "meta_tags", Progress: 15, Label: "Creating meta tags", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an SEO copywriter.", fmt.Sprintf(`Create meta title and meta description candidates for %s.
%s
Working title: %s
Focus keyword: %s

Give 3 title tags under 60 characters, 3 meta descriptions under 160
characters and a list of meta keywords, each in its own section.`, b.ProductName, brief, orNone([]string{title}), focus), "Creating SEO meta tags")
			if r != nil {
				out.MetaText = r.Response
				out.MetaTags = content.ParseMetaTags(r.Response)
			}
			return r, err
		}},
		{Name: "schema_markup", Progress: 30, Label: "Designing schema markup", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a structured data specialist.", fmt.Sprintf(`Recommend JSON-LD schema markup for a blog post about %s.
Consider Article, Product, Review, FAQPage and BreadcrumbList types and
give a ready-to-use example.`, b.ProductName), "Designing schema markup")
			if r != nil {
				out.SchemaMarkup = r.Response
			}
			return r, err
		}},
		{Name: "url_structure", Progress: 45, Label: "Optimizing URL structure", Run: func(ctx context.Context) (*Reasoned, error) {
			out.URLVariations = content.URLVariations(focus, b.ProductName, a.now().Year())
			var urls []string
			for _, v := range out.URLVariations {
				urls = append(urls, v.URL)
			}
			r, err := a.Reason(ctx, "You are a technical SEO specialist.", fmt.Sprintf(`Pick the best permalink for the post about %s and explain why.
Candidates: %s`, b.ProductName, orNone(urls)), "Optimizing URL structure")
			if r != nil {
				out.URLStrategy = r.Response
			}
			return r, err
		}},
		{Name: "technical_seo", Progress: 60, Label: "Reviewing technical SEO", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a technical SEO auditor.", fmt.Sprintf(`List the technical SEO requirements for the post about %s: canonical tags,
image alt text, heading order, crawlability and indexing directives.`, b.ProductName), "Reviewing technical SEO")
			if r != nil {
				out.TechnicalSEO = r.Response
			}
			return r, err
		}},
		{Name: "featured_snippets", Progress: 70, Label: "Targeting featured snippets", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a featured snippet specialist.", fmt.Sprintf(`Identify featured snippet opportunities for: %s.
Suggest paragraph, list and table snippet formats with example answers.`, orNone(primary)), "Targeting featured snippets")
			if r != nil {
				out.FeaturedSnippets = r.Response
			}
			return r, err
		}},
		{Name: "mobile_optimization", Progress: 80, Label: "Optimizing for mobile", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a mobile UX and SEO specialist.", fmt.Sprintf(`Give mobile optimization guidance for the post about %s: paragraph length,
tap targets, image sizing and above-the-fold priorities.`, b.ProductName), "Optimizing for mobile")
			if r != nil {
				out.MobileOptimization = r.Response
			}
			return r, err
		}},
		{Name: "page_speed", Progress: 90, Label: "Improving page speed", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a web performance engineer.", fmt.Sprintf(`Recommend page speed improvements for the post about %s: image formats,
lazy loading, script deferral and Core Web Vitals targets.`, b.ProductName), "Improving page speed")
			if r != nil {
				out.PageSpeed = r.Response
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
			"optimization_areas": out.OptimizationAreas,
			"title_candidates":   len(out.MetaTags.TitleTags),
			"url_variations":     len(out.URLVariations),
		},
	}, nil
}
