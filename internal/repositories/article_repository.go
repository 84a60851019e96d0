package repositories

import (
	"context"

	"conduit/internal/models"
)

// ArticleRepository defines the interface for article data access.
// Articles returned by the getters carry their Author.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	// UpdateFavoritesCount overwrites the derived count. ErrNotFound if the article is gone.
	UpdateFavoritesCount(ctx context.Context, id string, count int64) error
}
