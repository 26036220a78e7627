package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/seoblog/backend/internal/domain/article"
	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/infrastructure/persistence/models"
)

// GormArticleRepository implements article.ArticleRepository using GORM.
type GormArticleRepository struct {
	db *gorm.DB
}

func NewGormArticleRepository(db *gorm.DB) *GormArticleRepository {
	return &GormArticleRepository{db: db}
}

var _ article.ArticleRepository = (*GormArticleRepository)(nil)

func (r *GormArticleRepository) Save(ctx context.Context, a *article.Article) error {
	m, err := models.ArticleModelFromDomain(a)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *GormArticleRepository) FindByID(ctx context.Context, id uuid.UUID) (*article.Article, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormArticleRepository) FindByRunID(ctx context.Context, runID uuid.UUID) (*article.Article, error) {
	return r.findOne(ctx, "run_id = ?", runID)
}

func (r *GormArticleRepository) findOne(ctx context.Context, cond string, arg any) (*article.Article, error) {
	var m models.ArticleModel
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// FindAll supports the "published" filter (bool) on top of search.
func (r *GormArticleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]article.Article, int64, error) {
	filter = filter.Normalize()
	query := likeAny(r.db.WithContext(ctx).Model(&models.ArticleModel{}), filter.Search, "title", "focus_keyword")
	if v, ok := filter.Filters["published"].(bool); ok {
		if v {
			query = query.Where("post_id > 0")
		} else {
			query = query.Where("post_id = 0")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ArticleModel
	if err := paginate(query, filter, ArticleSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]article.Article, 0, len(rows))
	for i := range rows {
		a, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, nil
}

// DeleteByRunID is a no-op when the run produced no article.
func (r *GormArticleRepository) DeleteByRunID(ctx context.Context, runID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("run_id = ?", runID).Delete(&models.ArticleModel{}).Error
}
