package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PublishStatus is the WordPress status a post is created with.
type PublishStatus string

const (
	PublishStatusDraft   PublishStatus = "draft"
	PublishStatusPublish PublishStatus = "publish"
	PublishStatusPending PublishStatus = "pending"
	PublishStatusPrivate PublishStatus = "private"
)

// IsValid reports whether s is a WordPress post status we create posts with.
func (s PublishStatus) IsValid() bool {
	switch s {
	case PublishStatusDraft, PublishStatusPublish, PublishStatusPending, PublishStatusPrivate:
		return true
	}
	return false
}

// Brief defaults.
var (
	DefaultTargetKeywords = []string{"seo", "blog", "content"}
	DefaultBudget         = decimal.NewFromInt(2000)
)

const DefaultContentLength = "2000-2500 words"

// Brief is what the user asks the pipeline to write about.
type Brief struct {
	ProductName      string          `json:"product_name"`
	Niche            string          `json:"niche"`
	TargetAudience   string          `json:"target_audience"`
	TargetKeywords   []string        `json:"target_keywords"`
	ContentLength    string          `json:"content_length"`
	Budget           decimal.Decimal `json:"budget"`
	PublishStatus    PublishStatus   `json:"publish_status"`
	SkipQualityCheck bool            `json:"skip_quality_check"`
	SkipPublishing   bool            `json:"skip_publishing"`
}

// WithDefaults returns a copy with trimmed text and defaults filled in.
func (b Brief) WithDefaults() Brief {
	b.ProductName = strings.TrimSpace(b.ProductName)
	b.Niche = strings.TrimSpace(b.Niche)
	b.TargetAudience = strings.TrimSpace(b.TargetAudience)

	keywords := make([]string, 0, len(b.TargetKeywords))
	for _, k := range b.TargetKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		keywords = append(keywords, DefaultTargetKeywords...)
	}
	b.TargetKeywords = keywords

	if strings.TrimSpace(b.ContentLength) == "" {
		b.ContentLength = DefaultContentLength
	}
	if b.Budget.IsZero() {
		b.Budget = DefaultBudget
	}
	if b.PublishStatus == "" {
		b.PublishStatus = PublishStatusDraft
	}
	return b
}

// Validate checks the required fields.
func (b Brief) Validate() error {
	if b.ProductName == "" {
		return shared.NewDomainError("INVALID_BRIEF", "Product name is required")
	}
	if b.Niche == "" {
		return shared.NewDomainError("INVALID_BRIEF", "Niche is required")
	}
	if b.TargetAudience == "" {
		return shared.NewDomainError("INVALID_BRIEF", "Target audience is required")
	}
	if utf8.RuneCountInString(b.ProductName) > 200 {
		return shared.NewDomainError("INVALID_BRIEF", "Product name cannot exceed 200 characters")
	}
	if b.Budget.IsNegative() {
		return shared.NewDomainError("INVALID_BRIEF", "Budget cannot be negative")
	}
	if !b.PublishStatus.IsValid() {
		return shared.NewDomainError("INVALID_BRIEF", "Unknown publish status")
	}
	return nil
}

// NewBrief applies defaults and validates.
func NewBrief(b Brief) (Brief, error) {
	b = b.WithDefaults()
	if err := b.Validate(); err != nil {
		return Brief{}, err
	}
	return b, nil
}
