package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// ContentPlanner designs the structure and keyword placement of the article.
type ContentPlanner struct {
	Base
}

// NewContentPlanner creates the content planner.
func NewContentPlanner(client llm.Client, pc config.PipelineConfig, logger *zap.Logger) *ContentPlanner {
	cfg := DefaultConfig(string(pipeline.StageContentPlanner), "Plans article structure, headers and keyword placement").WithPipeline(pc)
	return &ContentPlanner{Base: NewBase(cfg, client, logger)}
}

func (a *ContentPlanner) Stage() pipeline.StageName { return pipeline.StageContentPlanner }

func (a *ContentPlanner) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	b := state.Brief
	brief := briefContext(b)
	ka := state.KeywordAnalysis
	primary := primaryKeywords(state, 5)
	secondary := ka.SecondaryTerms(10)
	longTail := ka.LongTailTerms(15)
	research := marketSummary(state.MarketResearch)
	out := &pipeline.ContentPlan{}

	steps := []Step{
		{Name: "requirements", Progress: 15, Label: "Analyzing content requirements", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a content strategist.", fmt.Sprintf(`Define the requirements for a blog post about %s.
%s
Market insights: %s
Primary keywords: %s

Cover the goal of the piece, reader questions to answer, tone of voice,
depth of coverage and the formats (lists, tables, examples) to include.`, b.ProductName, brief, research, orNone(primary)), "Analyzing content requirements")
			if r != nil {
				out.Requirements = r.Response
			}
			return r, err
		}},
		{Name: "outline", Progress: 30, Label: "Creating content outline", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a content architect.", fmt.Sprintf(`Create a detailed outline for a %s blog post about %s.
%s
Requirements: %s

Use a single H1 title, 5-8 H2 sections and H3 subsections where useful,
in markdown heading syntax.`, b.ContentLength, b.ProductName, brief, clip(out.Requirements, 600)), "Creating content outline")
			if r != nil {
				out.OutlineText = r.Response
				out.Outline = content.ParseOutline(r.Response)
				out.EstimatedWords = content.EstimateWordCount(out.Outline)
			}
			return r, err
		}},
		{Name: "headers", Progress: 45, Label: "Designing header hierarchy", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an SEO content architect.", fmt.Sprintf(`Refine the header hierarchy of this outline so headers carry the target keywords.
Outline:
%s
Primary keywords: %s

Return the headers in markdown heading syntax, one per line.`, clip(out.OutlineText, 1500), orNone(primary)), "Designing SEO header hierarchy")
			if r == nil {
				return r, err
			}
			headers := content.ParseHeaders(r.Response)
			if len(headers) == 0 {
				headers = content.ParseHeaders(out.OutlineText)
			}
			assignHeaderKeywords(headers, primary)
			out.Headers = headers
			return r, err
		}},
		{Name: "keyword_placement", Progress: 60, Label: "Planning keyword placement", Run: func(ctx context.Context) (*Reasoned, error) {
			out.KeywordPlacement = pipeline.KeywordPlacement{
				Primary:          primary,
				Secondary:        secondary,
				LongTail:         longTail,
				Targets:          content.KeywordTargets(out.EstimatedWords),
				PrimaryDensity:   content.PrimaryDensityGuideline,
				SecondaryDensity: content.SecondaryDensityGuideline,
			}
			r, err := a.Reason(ctx, "You are an on-page SEO specialist.", fmt.Sprintf(`Plan where each keyword appears in the post.
Primary: %s
Secondary: %s
Long-tail: %s
Target length: about %d words

Keep primary density at %s and secondary density at %s. Name the sections
and positions for each keyword.`, orNone(primary), orNone(secondary), orNone(longTail), out.EstimatedWords,
				content.PrimaryDensityGuideline, content.SecondaryDensityGuideline), "Planning keyword placement")
			if r != nil {
				out.KeywordPlacement.Strategy = r.Response
			}
			return r, err
		}},
		{Name: "sections", Progress: 70, Label: "Designing sections", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a content designer.", fmt.Sprintf(`Design each section of the post about %s: purpose, key points, examples and
visual elements such as tables, lists or images.
Sections: %s`, b.ProductName, orNone(sectionTitles(out.Outline))), "Designing section content")
			if r != nil {
				out.SectionDesign = r.Response
			}
			return r, err
		}},
		{Name: "internal_linking", Progress: 80, Label: "Planning internal links", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an internal linking strategist.", fmt.Sprintf(`Plan internal links for the post about %s in the %s niche.
Keywords: %s

Suggest anchor texts, related topics to link to and where each link belongs.`, b.ProductName, b.Niche, orNone(append(append([]string{}, primary...), secondary...))), "Planning internal linking")
			if r != nil {
				out.InternalLinking = r.Response
			}
			return r, err
		}},
		{Name: "cta_strategy", Progress: 90, Label: "Planning calls to action", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a conversion copy strategist.", fmt.Sprintf(`Plan the calls to action for the post about %s aimed at %s.
Budget context: $%s

Give the primary CTA, secondary CTAs, their placement and the wording.`, b.ProductName, b.TargetAudience, b.Budget.StringFixed(0)), "Planning calls to action")
			if r != nil {
				out.CTAStrategy = r.Response
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
			"total_sections":       out.Outline.TotalSections,
			"estimated_word_count": out.EstimatedWords,
			"headers_planned":      len(out.Headers),
		},
	}, nil
}

// assignHeaderKeywords gives H2 headers the primary keywords in turn.
func assignHeaderKeywords(headers []content.Header, keywords []string) {
	if len(keywords) == 0 {
		return
	}
	i := 0
	for h := range headers {
		if headers[h].Level != 2 {
			continue
		}
		headers[h].TargetKeyword = keywords[i%len(keywords)]
		i++
	}
}

func sectionTitles(o content.Outline) []string {
	titles := make([]string, 0, len(o.Sections))
	for _, s := range o.Sections {
		titles = append(titles, s.Title)
	}
	return titles
}

// marketSummary condenses market research for later prompts.
func marketSummary(mr *pipeline.MarketResearch) string {
	if mr == nil {
		return "none"
	}
	var parts []string
	for _, s := range []string{mr.CustomerAnalysis.Analysis, mr.SellingPoints.Analysis} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, clip(s, 300))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " | ")
}
