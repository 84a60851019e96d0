package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"conduit/internal/models"

	"github.com/google/uuid"
)

// InMemoryArticleRepository is an in-memory implementation of ArticleRepository.
// Authors are resolved through the given UserRepository on read.
type InMemoryArticleRepository struct {
	articles map[string]models.Article
	bySlug   map[string]string
	users    UserRepository
	mu       sync.RWMutex
}

// NewInMemoryArticleRepository creates a new instance of InMemoryArticleRepository.
func NewInMemoryArticleRepository(users UserRepository) *InMemoryArticleRepository {
	return &InMemoryArticleRepository{
		articles: make(map[string]models.Article),
		bySlug:   make(map[string]string),
		users:    users,
	}
}

// Create adds a new article, assigning its slug if absent.
func (r *InMemoryArticleRepository) Create(_ context.Context, article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	article.EnsureSlug()
	if _, taken := r.bySlug[article.Slug]; taken {
		return fmt.Errorf("failed to create article %s: %w", article.Slug, ErrDuplicate)
	}
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	now := time.Now()
	article.CreatedAt, article.UpdatedAt = now, now

	stored := *article
	stored.Author = models.User{}
	stored.TagList = append([]string(nil), article.TagList...)
	r.articles[article.ID] = stored
	r.bySlug[article.Slug] = article.ID
	return nil
}

// GetByID returns an article with its author.
func (r *InMemoryArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	r.mu.RLock()
	article, ok := r.articles[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("article with id %s: %w", id, ErrNotFound)
	}
	return r.withAuthor(ctx, article)
}

// GetBySlug returns an article with its author.
func (r *InMemoryArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	r.mu.RLock()
	article, ok := r.articles[r.bySlug[strings.ToLower(slug)]]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("article with slug %s: %w", slug, ErrNotFound)
	}
	return r.withAuthor(ctx, article)
}

func (r *InMemoryArticleRepository) withAuthor(ctx context.Context, article models.Article) (*models.Article, error) {
	author, err := r.users.GetByID(ctx, article.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author of article %s: %w", article.ID, err)
	}
	article.Author = *author
	article.TagList = append([]string(nil), article.TagList...)
	return &article, nil
}

// UpdateFavoritesCount writes the derived favorites count.
func (r *InMemoryArticleRepository) UpdateFavoritesCount(_ context.Context, id string, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, ok := r.articles[id]
	if !ok {
		return fmt.Errorf("article with id %s: %w", id, ErrNotFound)
	}
	article.FavoritesCount = count
	article.UpdatedAt = time.Now()
	r.articles[id] = article
	return nil
}
