package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/wordpress"
)

// Taxonomy limits.
const (
	maxCategories = 3
	maxTags       = 10
)

// categoryRules are checked in order; a category applies when the text
// mentions any of its words.
var categoryRules = []struct {
	name  string
	words []string
}{
	{"Reviews", []string{"review", "rating", "comparison", "best", "top"}},
	{"Guides", []string{"guide", "how to", "tutorial", "step"}},
	{"News", []string{"news", "update", "announcement", "release"}},
	{"Tips", []string{"tips", "tricks", "advice", "recommendations"}},
}

var commonTags = []string{"tutorial", "guide", "review", "comparison", "best", "top", "tips"}

var yearPattern = regexp.MustCompile(`202[4-9]`)

// TrackedMetrics are the post metrics the tracking snippet reports.
var TrackedMetrics = []string{"Page views", "Scroll depth", "Time on page", "Bounce rate", "Click-through rate"}

// Publisher formats the article and creates the WordPress post. It makes no
// model calls.
type Publisher struct {
	Base
	gateway article.Gateway
	now     func() time.Time
}

// NewPublisher creates the publisher. gw may be nil, in which case Process
// fails with ErrMissingInput.
func NewPublisher(gw article.Gateway, pc config.PipelineConfig, logger *zap.Logger) *Publisher {
	cfg := DefaultConfig(string(pipeline.StagePublisher), "Formats and publishes the article to WordPress").WithPipeline(pc)
	cfg.ReasoningEnabled = false
	cfg.DefaultConfidence = 90
	return &Publisher{Base: NewBase(cfg, nil, logger), gateway: gw, now: time.Now}
}

func (a *Publisher) Stage() pipeline.StageName { return pipeline.StagePublisher }

func (a *Publisher) Process(ctx context.Context, state *pipeline.State, report ProgressFunc) (*Result, error) {
	if a.gateway == nil {
		return nil, fmt.Errorf("%w: publishing gateway", ErrMissingInput)
	}
	draft := state.ContentDraft
	if draft == nil || strings.TrimSpace(draft.CompleteArticle) == "" {
		return nil, fmt.Errorf("%w: content draft", ErrMissingInput)
	}
	b := state.Brief
	md := draft.CompleteArticle
	out := &pipeline.Publication{}

	steps := []Step{
		{Name: "extract", Progress: 15, Label: "Extracting publication data", Run: func(context.Context) (*Reasoned, error) {
			var metaTitle, metaDesc string
			if seo := state.SEOOptimization; seo != nil {
				metaTitle = seo.MetaTags.FirstTitle()
				metaDesc = seo.MetaTags.FirstDescription()
			}
			out.Title = article.TitleFrom(md, metaTitle)
			out.MetaTitle = metaTitle
			if out.MetaTitle == "" {
				out.MetaTitle = out.Title
			}
			out.MetaDescription = metaDesc
			out.Excerpt = article.ExcerptFrom(metaDesc)
			out.Keywords = primaryKeywords(state, 5)
			if len(out.Keywords) > 0 {
				out.FocusKeyword = out.Keywords[0]
			}
			return nil, nil
		}},
		{Name: "categories", Progress: 30, Label: "Detecting categories", Run: func(context.Context) (*Reasoned, error) {
			out.Categories = DetectCategories(md)
			return nil, nil
		}},
		{Name: "tags", Progress: 45, Label: "Building tags", Run: func(context.Context) (*Reasoned, error) {
			out.Tags = BuildTags(md, out.Keywords)
			return nil, nil
		}},
		{Name: "format", Progress: 60, Label: "Formatting for WordPress", Run: func(context.Context) (*Reasoned, error) {
			rendered, err := wordpress.Render(md, b.ProductName)
			if err != nil {
				return nil, err
			}
			out.HTML = rendered
			if out.Excerpt == "" {
				text, err := wordpress.PlainText(rendered)
				if err != nil {
					return nil, err
				}
				out.Excerpt = article.ExcerptFrom(text)
			}
			return nil, nil
		}},
		{Name: "publish", Progress: 80, Label: "Publishing to WordPress", Run: func(ctx context.Context) (*Reasoned, error) {
			status := string(b.PublishStatus)
			res, err := PublishPost(ctx, a.gateway, PostInput{
				Title:           out.Title,
				HTML:            out.HTML,
				Excerpt:         out.Excerpt,
				Status:          status,
				Categories:      out.Categories,
				Tags:            out.Tags,
				MetaTitle:       out.MetaTitle,
				MetaDescription: out.MetaDescription,
				FocusKeyword:    out.FocusKeyword,
			})
			if err != nil {
				return nil, err
			}
			out.PostID = res.ID
			out.PostURL = res.Link
			out.EditURL = a.gateway.EditURL(res.ID)
			out.Status = res.Status
			out.PublishedAt = a.now().UTC()
			a.logger.Info("Post created",
				zap.Int64("post_id", res.ID),
				zap.String("status", res.Status),
			)
			return nil, nil
		}},
		{Name: "tracking", Progress: 95, Label: "Setting up tracking", Run: func(context.Context) (*Reasoned, error) {
			out.TrackingCode = TrackingSnippet(out.PostID, out.PostURL, out.Title)
			out.TrackedMetrics = append([]string(nil), TrackedMetrics...)
			return nil, nil
		}},
	}

	trace, err := RunSteps(ctx, steps, report, a.cfg.DefaultConfidence)
	if err != nil {
		return nil, err
	}
	return &Result{
		Artifact:   out,
		Reasoning:  []string{"Formatted article locally", "Published through the WordPress REST API"},
		Confidence: trace.Confidence,
		Metadata: map[string]any{
			"post_id":    out.PostID,
			"post_url":   out.PostURL,
			"categories": len(out.Categories),
			"tags":       len(out.Tags),
		},
	}, nil
}

// PostInput is a formatted article ready to publish.
type PostInput struct {
	Title           string
	HTML            string
	Excerpt         string
	Slug            string
	Status          string
	Categories      []string
	Tags            []string
	MetaTitle       string
	MetaDescription string
	FocusKeyword    string
}

// PublishPost checks the connection, resolves taxonomy names to IDs and
// creates the post with Yoast SEO meta.
func PublishPost(ctx context.Context, gw article.Gateway, in PostInput) (article.PostResult, error) {
	if err := gw.TestConnection(ctx); err != nil {
		return article.PostResult{}, fmt.Errorf("connection test: %w", err)
	}
	catIDs, err := gw.EnsureCategories(ctx, in.Categories)
	if err != nil {
		return article.PostResult{}, fmt.Errorf("categories: %w", err)
	}
	tagIDs, err := gw.EnsureTags(ctx, in.Tags)
	if err != nil {
		return article.PostResult{}, fmt.Errorf("tags: %w", err)
	}
	meta := map[string]string{}
	for k, v := range map[string]string{
		"_yoast_wpseo_title":    in.MetaTitle,
		"_yoast_wpseo_metadesc": in.MetaDescription,
		"_yoast_wpseo_focuskw":  in.FocusKeyword,
	} {
		if v != "" {
			meta[k] = v
		}
	}
	status := in.Status
	if status == "" {
		status = string(pipeline.PublishStatusDraft)
	}
	return gw.CreatePost(ctx, article.PostRequest{
		Title:       in.Title,
		Content:     in.HTML,
		Excerpt:     in.Excerpt,
		Slug:        in.Slug,
		Status:      status,
		CategoryIDs: catIDs,
		TagIDs:      tagIDs,
		Meta:        meta,
	})
}

// DetectCategories picks up to three categories from the article text.
func DetectCategories(text string) []string {
	lower := strings.ToLower(text)
	cats := make([]string, 0, maxCategories)
	for _, rule := range categoryRules {
		if len(cats) == maxCategories {
			break
		}
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				cats = append(cats, rule.name)
				break
			}
		}
	}
	return cats
}

// BuildTags combines keywords, a mentioned year and common tags found in
// the text, without duplicates, up to ten.
func BuildTags(text string, keywords []string) []string {
	tags := make([]string, 0, maxTags)
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] || len(tags) == maxTags {
			return
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, t)
	}
	for _, k := range keywords[:min(5, len(keywords))] {
		add(k)
	}
	if y := yearPattern.FindString(text); y != "" {
		add(y)
	}
	lower := strings.ToLower(text)
	for _, t := range commonTags {
		if strings.Contains(lower, t) {
			add(t)
		}
	}
	return tags
}

// TrackingSnippet is the analytics script for a published post.
func TrackingSnippet(postID int64, postURL, title string) string {
	return fmt.Sprintf(`<!-- Analytics Tracking for Post ID: %d -->
<script>
if (typeof gtag !== 'undefined') {
  gtag('event', 'page_view', {
    'page_title': %q,
    'page_location': %q,
    'page_path': window.location.pathname,
    'content_type': 'ai_generated_blog'
  });
}
let maxScroll = 0;
window.addEventListener('scroll', function() {
  const pct = Math.round((window.scrollY / (document.body.scrollHeight - window.innerHeight)) * 100);
  if (pct > maxScroll) {
    maxScroll = pct;
    if (pct %% 25 === 0 && typeof gtag !== 'undefined') {
      gtag('event', 'scroll_depth', {'percent': pct, 'post_id': '%d'});
    }
  }
});
</script>
`, postID, title, postURL, postID)
}
