package article

import (
	"context"

	"github.com/google/uuid"
	"github.com/seoblog/backend/internal/domain/shared"
)

// ArticleRepository persists generated articles.
type ArticleRepository interface {
	Save(ctx context.Context, a *Article) error
	// FindByID returns shared.ErrNotFound if the article does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Article, error)
	// FindByRunID returns shared.ErrNotFound if the run produced no article
	FindByRunID(ctx context.Context, runID uuid.UUID) (*Article, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Article, int64, error)
	DeleteByRunID(ctx context.Context, runID uuid.UUID) error
}
