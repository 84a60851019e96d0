package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conduit/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMArticleRepository is a GORM implementation of ArticleRepository.
type GORMArticleRepository struct {
	db *gorm.DB
}

// NewGORMArticleRepository creates a new instance of GORMArticleRepository.
func NewGORMArticleRepository(db *gorm.DB) *GORMArticleRepository {
	return &GORMArticleRepository{
		db: db,
	}
}

// Create inserts the article. The slug is assigned by the model's BeforeCreate hook.
func (r *GORMArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(article).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create article %s: %w", article.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// GetByID retrieves an article with its author.
func (r *GORMArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySlug retrieves an article with its author.
func (r *GORMArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return r.getBy(ctx, "slug", strings.ToLower(slug))
}

func (r *GORMArticleRepository) getBy(ctx context.Context, column, value string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Author").First(&article, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("article with %s %s: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get article by %s %s: %w", column, value, err)
	}
	return &article, nil
}

// UpdateFavoritesCount writes the derived favorites count.
func (r *GORMArticleRepository) UpdateFavoritesCount(ctx context.Context, id string, count int64) error {
	res := r.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Update("favorites_count", count)
	if res.Error != nil {
		return fmt.Errorf("failed to update favorites count of article %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("article with id %s: %w", id, ErrNotFound)
	}
	return nil
}
