package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// CreateArticleInput is the payload for publishing an article.
type CreateArticleInput struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

// ArticleService publishes articles and applies favorite changes to them.
type ArticleService struct {
	articles repositories.ArticleRepository
	ledger   *RelationshipService
	validate *validator.Validate
}

// NewArticleService creates a new ArticleService.
func NewArticleService(articles repositories.ArticleRepository, ledger *RelationshipService) *ArticleService {
	return &ArticleService{
		articles: articles,
		ledger:   ledger,
		validate: newValidator(),
	}
}

// Create stores a new article authored by author.
func (s *ArticleService) Create(ctx context.Context, author *models.User, in CreateArticleInput) (models.ArticleView, error) {
	if author == nil {
		return models.ArticleView{}, models.NewUnauthorizedError("authentication required")
	}
	if err := validateInput(s.validate, in); err != nil {
		return models.ArticleView{}, err
	}

	article := &models.Article{
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		TagList:     in.TagList,
		AuthorID:    author.ID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.ArticleView{}, models.NewConflictError("slug")
		}
		return models.ArticleView{}, fmt.Errorf("failed to create article: %w", err)
	}
	article.Author = *author

	observability.Logger.InfoContext(ctx, "article created",
		slog.String("article_id", article.ID),
		slog.String("slug", article.Slug),
	)
	return ProjectArticle(article, author), nil
}

// Get returns the article as seen by viewer.
func (s *ArticleService) Get(ctx context.Context, slug string, viewer *models.User) (models.ArticleView, error) {
	article, err := s.lookup(ctx, slug)
	if err != nil {
		return models.ArticleView{}, err
	}
	return ProjectArticle(article, viewer), nil
}

// Favorite adds the article to actor's favorites and returns it with the resynced count.
func (s *ArticleService) Favorite(ctx context.Context, actor *models.User, slug string) (models.ArticleView, error) {
	return s.toggle(ctx, actor, slug, s.ledger.Favorite)
}

// Unfavorite removes the article from actor's favorites and returns it with the resynced count.
func (s *ArticleService) Unfavorite(ctx context.Context, actor *models.User, slug string) (models.ArticleView, error) {
	return s.toggle(ctx, actor, slug, s.ledger.Unfavorite)
}

func (s *ArticleService) toggle(ctx context.Context, actor *models.User, slug string, apply func(context.Context, *models.User, string) error) (models.ArticleView, error) {
	article, err := s.lookup(ctx, slug)
	if err != nil {
		return models.ArticleView{}, err
	}
	if err := apply(ctx, actor, article.ID); err != nil {
		return models.ArticleView{}, err
	}

	// Re-read so the response carries the count written by the resync.
	refreshed, err := s.articles.GetByID(ctx, article.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ArticleView{}, models.NewNotFoundError("article", slug)
		}
		return models.ArticleView{}, err
	}
	return ProjectArticle(refreshed, actor), nil
}

func (s *ArticleService) lookup(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("article", slug)
		}
		return nil, err
	}
	return article, nil
}
