package article

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/content"
	"github.com/seoblog/backend/internal/domain/shared"
)

// AggregateTypeArticle is the aggregate type of generated articles.
const AggregateTypeArticle = "Article"

// UntitledPost is used when no title can be derived.
const UntitledPost = "Untitled Post"

const excerptLength = 150

// Publication records where an article lives in WordPress.
type Publication struct {
	PostID      int64      `json:"post_id"`
	PostURL     string     `json:"post_url"`
	EditURL     string     `json:"edit_url"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Article is the blog post a pipeline run produced.
type Article struct {
	shared.BaseAggregateRoot
	RunID           uuid.UUID   `json:"run_id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Markdown        string      `json:"markdown"`
	HTML            string      `json:"html"`
	Excerpt         string      `json:"excerpt"`
	MetaTitle       string      `json:"meta_title"`
	MetaDescription string      `json:"meta_description"`
	FocusKeyword    string      `json:"focus_keyword"`
	Keywords        []string    `json:"keywords"`
	Categories      []string    `json:"categories"`
	Tags            []string    `json:"tags"`
	WordCount       int         `json:"word_count"`
	ReadTimeMinutes int         `json:"read_time_minutes"`
	QualityScore    int         `json:"quality_score"`
	QualityGrade    string      `json:"quality_grade"`
	Publication     Publication `json:"publication"`
}

// Draft is the material a run hands over to build an article.
type Draft struct {
	RunID           uuid.UUID
	Markdown        string
	MetaTitle       string
	MetaDescription string
	Keywords        []string
}

var h1Line = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// TitleFrom picks the first markdown H1, then the meta title, then UntitledPost.
func TitleFrom(markdown, metaTitle string) string {
	if m := h1Line.FindStringSubmatch(markdown); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(metaTitle); t != "" {
		return t
	}
	return UntitledPost
}

// ExcerptFrom truncates a description to the excerpt length on a rune boundary.
func ExcerptFrom(description string) string {
	r := []rune(strings.TrimSpace(description))
	if len(r) <= excerptLength {
		return string(r)
	}
	return string(r[:excerptLength])
}

// NewArticleFromDraft builds an article from a finished draft.
func NewArticleFromDraft(d Draft) (*Article, error) {
	if strings.TrimSpace(d.Markdown) == "" {
		return nil, shared.NewDomainError("EMPTY_ARTICLE", "Article content is empty")
	}
	title := TitleFrom(d.Markdown, d.MetaTitle)
	metaTitle := d.MetaTitle
	if metaTitle == "" {
		metaTitle = title
	}
	keywords := append([]string(nil), d.Keywords...)
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	focus := ""
	if len(keywords) > 0 {
		focus = keywords[0]
	}
	words := content.WordCount(d.Markdown)

	a := &Article{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RunID:             d.RunID,
		Title:             title,
		Slug:              content.Slugify(title),
		Markdown:          d.Markdown,
		Excerpt:           ExcerptFrom(d.MetaDescription),
		MetaTitle:         metaTitle,
		MetaDescription:   d.MetaDescription,
		FocusKeyword:      focus,
		Keywords:          keywords,
		Categories:        []string{},
		Tags:              []string{},
		WordCount:         words,
		ReadTimeMinutes:   content.ReadTime(words),
	}
	return a, nil
}

// Render stores the formatted HTML with its taxonomy.
func (a *Article) Render(html string, categories, tags []string) {
	a.HTML = html
	a.Categories = append([]string(nil), categories...)
	a.Tags = append([]string(nil), tags...)
	a.Touch()
}

// Grade stores the quality score and grade.
func (a *Article) Grade(score int, grade string) {
	a.QualityScore = score
	a.QualityGrade = grade
	a.Touch()
}

// MarkPublished records the WordPress post.
func (a *Article) MarkPublished(p Publication) error {
	if p.PostID <= 0 {
		return shared.NewDomainError("INVALID_PUBLICATION", "Post ID must be positive")
	}
	if p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	a.Publication = p
	a.IncrementVersion()
	a.AddDomainEvent(NewArticlePublishedEvent(a))
	return nil
}

// IsPublished reports whether the article has a WordPress post.
func (a *Article) IsPublished() bool {
	return a.Publication.PostID > 0
}

// EventTypeArticlePublished is published when an article reaches WordPress.
const EventTypeArticlePublished = "ArticlePublished"

// ArticlePublishedEvent is published when an article reaches WordPress.
type ArticlePublishedEvent struct {
	shared.BaseDomainEvent
	RunID   uuid.UUID `json:"run_id"`
	PostID  int64     `json:"post_id"`
	PostURL string    `json:"post_url"`
	Status  string    `json:"status"`
}

func NewArticlePublishedEvent(a *Article) *ArticlePublishedEvent {
	return &ArticlePublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArticlePublished, AggregateTypeArticle, a.ID),
		RunID:           a.RunID,
		PostID:          a.Publication.PostID,
		PostURL:         a.Publication.PostURL,
		Status:          a.Publication.Status,
	}
}
