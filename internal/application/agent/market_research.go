package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// ToolSERPTopDomains returns the ranking domains for a keyword.
const ToolSERPTopDomains = "serp_top_domains"

// MarketResearch analyses customers, trends, competitors and selling points.
type MarketResearch struct {
	Base
	tools *Toolbox
}

// NewMarketResearch creates the market research agent. seo may be nil.
func NewMarketResearch(client llm.Client, seo Researcher, pc config.PipelineConfig, logger *zap.Logger) *MarketResearch {
	cfg := DefaultConfig(string(pipeline.StageMarketResearch), "Analyzes market, customers, competitors and identifies selling points").WithPipeline(pc)
	a := &MarketResearch{Base: NewBase(cfg, client, logger), tools: NewToolbox()}
	if seo != nil {
		a.tools.Register(ToolSERPTopDomains, func(ctx context.Context, args ...string) (any, error) {
			if len(args) == 0 {
				return []string{}, nil
			}
			res, err := seo.SERPAnalysis(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return res.TopDomains(5), nil
		})
	}
	return a
}

func (a *MarketResearch) Stage() pipeline.StageName { return pipeline.StageMarketResearch }

func (a *MarketResearch) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	b := state.Brief
	brief := briefContext(b)
	out := &pipeline.MarketResearch{AnalysisAreas: 4}

	steps := []Step{
		{Name: "customer_analysis", Progress: 20, Label: "Analyzing target customers", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an expert customer analyst.", fmt.Sprintf(`Analyze the target customers for %s in the %s market.
%s

Cover the demographic profile, buying behaviour, pain points and motivations,
price sensitivity, and the customer journey from awareness to purchase.
Give clear, actionable insights.`, b.ProductName, b.Niche, brief), "Analyzing target customer demographics and behaviors")
			out.CustomerAnalysis = insight(r)
			return r, err
		}},
		{Name: "market_trends", Progress: 40, Label: "Researching market trends", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a market trend analyst with deep industry knowledge.", fmt.Sprintf(`Analyze current market trends for %s in the %s industry.
%s

Cover market size and growth, technology trends, consumer behaviour shifts,
pricing trends and distribution channels. Give data-backed recommendations.`, b.ProductName, b.Niche, brief), "Analyzing market trends and future opportunities")
			out.MarketTrends = insight(r)
			return r, err
		}},
		{Name: "competitor_analysis", Progress: 60, Label: "Analyzing competitors", Run: func(ctx context.Context) (*Reasoned, error) {
			out.TopCompetitors = a.topCompetitors(ctx, b)
			r, err := a.Reason(ctx, "You are a competitive intelligence analyst.", fmt.Sprintf(`Conduct a competitor analysis for %s in %s.
%s
Domains currently ranking for the main keyword: %s

Identify the main competitors and their positioning, pricing, content and SEO
strategies, market gaps, and where we can differentiate.`, b.ProductName, b.Niche, brief, orNone(out.TopCompetitors)), "Analyzing competitive landscape and opportunities")
			out.CompetitorAnalysis = insight(r)
			return r, err
		}},
		{Name: "selling_points", Progress: 80, Label: "Identifying selling points", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a product marketing strategist focused on conversion optimization.", fmt.Sprintf(`Identify compelling unique selling points for %s.
%s

Cover the value propositions, differentiation factors, benefit hierarchy,
proof points, content angles and benefit-focused search terms.`, b.ProductName, brief), "Identifying unique selling points and value propositions")
			out.SellingPoints = insight(r)
			return r, err
		}},
		{Name: "market_overview", Progress: 90, Label: "Summarizing the market", Run: func(ctx context.Context) (*Reasoned, error) {
			out.Overview = a.overview(ctx, b, brief)
			return nil, nil
		}},
	}

	trace, err := RunSteps(ctx, steps, report, a.cfg.DefaultConfidence)
	if err != nil {
		return nil, err
	}
	out.AvgConfidence = float64(trace.Confidence)
	return &Result{
		Artifact:   out,
		Reasoning:  trace.Reasoning,
		Confidence: trace.Confidence,
		Metadata: map[string]any{
			"analysis_areas": out.AnalysisAreas,
			"total_insights": len(trace.Reasoning),
		},
	}, nil
}

// overview asks reasoning clients for a structured market summary. It is best
// effort and leaves the artifact without an overview on failure.
func (a *MarketResearch) overview(ctx context.Context, b pipeline.Brief, brief string) *pipeline.MarketOverview {
	r, ok := a.llm.(llm.Reasoner)
	if !ok {
		return nil
	}
	cot, err := r.ReasonJSON(ctx, fmt.Sprintf("Market research for %s", b.Niche), brief)
	if err != nil {
		a.logger.Warn("Market overview failed", zap.Error(err))
		return nil
	}
	steps := make([]string, 0, len(cot.Steps))
	for _, s := range cot.Steps {
		steps = append(steps, fmt.Sprintf("%s: %s", s.Thought, s.Reasoning))
	}
	return &pipeline.MarketOverview{Steps: steps, Conclusion: cot.FinalConclusion, Confidence: cot.Confidence}
}

// topCompetitors is best effort; a failed lookup leaves the prompt without domains.
func (a *MarketResearch) topCompetitors(ctx context.Context, b pipeline.Brief) []string {
	if !a.tools.Has(ToolSERPTopDomains) || len(b.TargetKeywords) == 0 {
		return nil
	}
	v, err := a.tools.Call(ctx, ToolSERPTopDomains, b.TargetKeywords[0])
	if err != nil {
		a.logger.Warn("SERP lookup failed", zap.Error(err))
		return nil
	}
	domains, _ := v.([]string)
	return domains
}
