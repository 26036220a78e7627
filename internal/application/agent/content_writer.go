package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/llm"
)

// Preliminary draft scores; the quality checker replaces them.
const (
	draftQualityScore = 95
	draftReadyDefault = true
)

// ContentWriter writes the article section by section.
type ContentWriter struct {
	Base
}

// NewContentWriter creates the content writer.
func NewContentWriter(client llm.Client, pc config.PipelineConfig, logger *zap.Logger) *ContentWriter {
	cfg := DefaultConfig(string(pipeline.StageContentWriter), "Writes the complete SEO blog post")
	cfg.Temperature = 0.8
	cfg.MaxTokens = 8000
	cfg.Timeout = 180 * time.Second
	cfg = cfg.WithPipeline(pc)
	return &ContentWriter{Base: NewBase(cfg, client, logger)}
}

func (a *ContentWriter) Stage() pipeline.StageName { return pipeline.StageContentWriter }

func (a *ContentWriter) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	b := state.Brief
	brief := briefContext(b)
	primary := primaryKeywords(state, 5)
	secondary := state.KeywordAnalysis.SecondaryTerms(5)
	structure, title := "none", ""
	if p := state.ContentPlan; p != nil {
		structure = clip(p.OutlineText, 1500)
		title = p.Outline.Title
	}
	if title == "" && state.SEOOptimization != nil {
		title = state.SEOOptimization.MetaTags.FirstTitle()
	}
	research := marketSummary(state.MarketResearch)
	out := &pipeline.ContentDraft{}

	steps := []Step{
		{Name: "introduction", Progress: 15, Label: "Writing introduction", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an engaging blog writer.", fmt.Sprintf(`Write the introduction of the blog article about %s.
%s
Market insights: %s
Primary keywords: %s

Open with a hook, state the reader's problem, promise the value of the post
and use the first primary keyword within the first 100 words. 150-200 words.`, b.ProductName, brief, research, orNone(primary)), "Writing the introduction")
			if r != nil {
				out.Introduction = r.Response
			}
			return r, err
		}},
		{Name: "main_content", Progress: 35, Label: "Writing main content", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an expert content writer and subject matter specialist.", fmt.Sprintf(`Write the main body of the article about %s following this structure:
%s

Primary keywords: %s
Secondary keywords: %s

Use H2 and H3 markdown headings, short paragraphs, lists and concrete
examples. Keep primary keyword density near %s.`, b.ProductName, structure, orNone(primary), orNone(secondary), content.PrimaryDensityGuideline), "Writing the main content sections")
			if r != nil {
				out.MainContent = r.Response
				out.MainStats = sectionStats(r.Response, primary)
			}
			return r, err
		}},
		{Name: "conclusion", Progress: 55, Label: "Writing conclusion", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a conversion-focused blog writer.", fmt.Sprintf(`Write the conclusion of the article about %s for %s.
Summarize the key takeaways, restate the primary keyword %s and end with a
clear call to action. 120-180 words.`, b.ProductName, b.TargetAudience, orNone(primary[:min(1, len(primary))])), "Writing the conclusion")
			if r != nil {
				out.Conclusion = r.Response
			}
			return r, err
		}},
		{Name: "faq", Progress: 70, Label: "Writing FAQ section", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are an SEO writer targeting People Also Ask results.", fmt.Sprintf(`Write a FAQ section for the article about %s with 5 questions and concise
answers. Work in these long-tail phrases where natural: %s`, b.ProductName, orNone(state.KeywordAnalysis.LongTailTerms(5))), "Writing the FAQ section")
			if r != nil {
				out.FAQ = r.Response
			}
			return r, err
		}},
		{Name: "internal_links", Progress: 80, Label: "Adding internal links", Run: func(ctx context.Context) (*Reasoned, error) {
			plan := "none"
			if state.ContentPlan != nil && state.ContentPlan.InternalLinking != "" {
				plan = clip(state.ContentPlan.InternalLinking, 600)
			}
			r, err := a.Reason(ctx, "You are an internal linking specialist.", fmt.Sprintf(`Suggest where to add internal links in the article about %s.
Linking plan: %s
Give anchor text and the sentence each link belongs in.`, b.ProductName, plan), "Adding internal links")
			if r != nil {
				out.InternalLinks = r.Response
			}
			return r, err
		}},
		{Name: "flow_review", Progress: 90, Label: "Reviewing flow", Run: func(ctx context.Context) (*Reasoned, error) {
			r, err := a.Reason(ctx, "You are a senior editor.", fmt.Sprintf(`Review the flow between the sections of the article about %s and suggest
transitions. Introduction: %s
Conclusion: %s`, b.ProductName, clip(out.Introduction, 400), clip(out.Conclusion, 300)), "Reviewing content flow")
			if r != nil {
				out.FlowNotes = r.Response
			}
			return r, err
		}},
	}

	trace, err := RunSteps(ctx, steps, report, a.cfg.DefaultConfidence)
	if err != nil {
		return nil, err
	}
	out.CompleteArticle = assembleArticle(title, out)
	out.TotalWords = content.WordCount(out.CompleteArticle)
	out.ReadTimeMinutes = content.ReadTime(out.TotalWords)
	out.QualityScore = draftQualityScore
	out.PublicationReady = draftReadyDefault
	return &Result{
		Artifact:   out,
		Reasoning:  trace.Reasoning,
		Confidence: trace.Confidence,
		Metadata: map[string]any{
			"total_word_count":    out.TotalWords,
			"estimated_read_time": out.ReadTimeMinutes,
			"sections_written":    len(steps),
		},
	}, nil
}

// sectionStats measures the main body against the primary keywords.
func sectionStats(text string, keywords []string) pipeline.SectionStats {
	words := content.WordCount(text)
	h2, h3 := content.HeadingCounts(text)
	mentions := make(map[string]int, len(keywords))
	total := 0
	for _, kw := range keywords {
		n := content.CountOccurrences(text, kw)
		mentions[kw] = n
		total += n
	}
	var density float64
	if words > 0 {
		density = content.Round2(float64(total) / float64(words) * 100)
	}
	return pipeline.SectionStats{
		WordCount:        words,
		H2Count:          h2,
		H3Count:          h3,
		AvgSectionLength: words / max(h2, 1),
		KeywordMentions:  mentions,
		TotalDensity:     density,
	}
}

// assembleArticle joins the written parts into one markdown document. The
// introduction, conclusion and FAQ lose any heading the model gave them and
// the closing parts get fixed H2 headings.
func assembleArticle(title string, d *pipeline.ContentDraft) string {
	var parts []string
	if title != "" {
		parts = append(parts, "# "+title)
	}
	if intro := stripLeadingHeading(d.Introduction); intro != "" {
		parts = append(parts, intro)
	}
	if body := strings.TrimSpace(d.MainContent); body != "" {
		parts = append(parts, body)
	}
	for _, sec := range []struct{ heading, text string }{
		{"Conclusion", d.Conclusion},
		{"Frequently Asked Questions", d.FAQ},
	} {
		if text := stripLeadingHeading(sec.text); text != "" {
			parts = append(parts, "## "+sec.heading, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func stripLeadingHeading(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "#") {
		return text
	}
	_, rest, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(rest)
}
