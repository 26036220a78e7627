package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/article"
)

// ArticleModel is the row of a generated article. A run produces at most
// one article.
type ArticleModel struct {
	AggregateModel
	RunID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Title           string    `gorm:"type:varchar(300);not null"`
	Slug            string    `gorm:"type:varchar(300);not null;index"`
	Markdown        string    `gorm:"type:text;not null"`
	HTML            string    `gorm:"column:html;type:text"`
	Excerpt         string    `gorm:"type:text"`
	MetaTitle       string    `gorm:"type:varchar(300)"`
	MetaDescription string    `gorm:"type:text"`
	FocusKeyword    string    `gorm:"type:varchar(200)"`
	KeywordsJSON    string    `gorm:"column:keywords;type:text"`
	CategoriesJSON  string    `gorm:"column:categories;type:text"`
	TagsJSON        string    `gorm:"column:tags;type:text"`
	WordCount       int       `gorm:"not null;default:0"`
	ReadTimeMinutes int       `gorm:"not null;default:0"`
	QualityScore    int       `gorm:"not null;default:0"`
	QualityGrade    string    `gorm:"type:varchar(40)"`
	PostID          int64     `gorm:"not null;default:0;index"`
	PostURL         string    `gorm:"type:varchar(500)"`
	EditURL         string    `gorm:"type:varchar(500)"`
	PublishStatus   string    `gorm:"type:varchar(20)"`
	PublishedAt     *time.Time
}

func (ArticleModel) TableName() string { return "articles" }

func ArticleModelFromDomain(a *article.Article) (*ArticleModel, error) {
	m := &ArticleModel{
		AggregateModel:  aggregateFromDomain(a.BaseAggregateRoot),
		RunID:           a.RunID,
		Title:           a.Title,
		Slug:            a.Slug,
		Markdown:        a.Markdown,
		HTML:            a.HTML,
		Excerpt:         a.Excerpt,
		MetaTitle:       a.MetaTitle,
		MetaDescription: a.MetaDescription,
		FocusKeyword:    a.FocusKeyword,
		WordCount:       a.WordCount,
		ReadTimeMinutes: a.ReadTimeMinutes,
		QualityScore:    a.QualityScore,
		QualityGrade:    a.QualityGrade,
		PostID:          a.Publication.PostID,
		PostURL:         a.Publication.PostURL,
		EditURL:         a.Publication.EditURL,
		PublishStatus:   a.Publication.Status,
		PublishedAt:     a.Publication.PublishedAt,
	}
	var err error
	if m.KeywordsJSON, err = encodeJSON(a.Keywords); err != nil {
		return nil, err
	}
	if m.CategoriesJSON, err = encodeJSON(a.Categories); err != nil {
		return nil, err
	}
	if m.TagsJSON, err = encodeJSON(a.Tags); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ArticleModel) ToDomain() (*article.Article, error) {
	a := &article.Article{
		BaseAggregateRoot: m.AggregateModel.toDomain(),
		RunID:             m.RunID,
		Title:             m.Title,
		Slug:              m.Slug,
		Markdown:          m.Markdown,
		HTML:              m.HTML,
		Excerpt:           m.Excerpt,
		MetaTitle:         m.MetaTitle,
		MetaDescription:   m.MetaDescription,
		FocusKeyword:      m.FocusKeyword,
		WordCount:         m.WordCount,
		ReadTimeMinutes:   m.ReadTimeMinutes,
		QualityScore:      m.QualityScore,
		QualityGrade:      m.QualityGrade,
		Publication: article.Publication{
			PostID:      m.PostID,
			PostURL:     m.PostURL,
			EditURL:     m.EditURL,
			Status:      m.PublishStatus,
			PublishedAt: m.PublishedAt,
		},
	}
	if err := decodeJSON("keywords", m.KeywordsJSON, &a.Keywords); err != nil {
		return nil, err
	}
	if err := decodeJSON("categories", m.CategoriesJSON, &a.Categories); err != nil {
		return nil, err
	}
	if err := decodeJSON("tags", m.TagsJSON, &a.Tags); err != nil {
		return nil, err
	}
	return a, nil
}

// All lists every model the schema is built from.
func All() []any {
	return []any{&PipelineRunModel{}, &StageResultModel{}, &ArticleModel{}, &ScheduleModel{}}
}
