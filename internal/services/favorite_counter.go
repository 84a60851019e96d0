package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conduit/internal/observability"
	"conduit/internal/repositories"
)

// FavoriteCounter keeps Article.FavoritesCount equal to the number of users favoriting it.
//
// Every resync is a full recount rather than an increment, so whichever resync finishes
// last leaves the correct value even when favorites on the same article race. Between a
// membership write and its resync the stored count is stale; nothing reconciles it in the
// background, the next favorite change on that article does.
type FavoriteCounter struct {
	users    repositories.UserRepository
	articles repositories.ArticleRepository
}

// NewFavoriteCounter creates a new FavoriteCounter.
func NewFavoriteCounter(users repositories.UserRepository, articles repositories.ArticleRepository) *FavoriteCounter {
	return &FavoriteCounter{
		users:    users,
		articles: articles,
	}
}

// Resync recounts the article's favorites and stores the result.
// A missing article is not an error; there is nothing to update.
func (c *FavoriteCounter) Resync(ctx context.Context, articleID string) error {
	count, err := c.users.CountFavoritedBy(ctx, articleID)
	if err != nil {
		observability.FavoriteResyncs.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to count favorites of article %s: %w", articleID, err)
	}

	if err := c.articles.UpdateFavoritesCount(ctx, articleID, count); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			observability.FavoriteResyncs.WithLabelValues("missing").Inc()
			return nil
		}
		observability.FavoriteResyncs.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to store favorites count of article %s: %w", articleID, err)
	}

	observability.FavoriteResyncs.WithLabelValues("ok").Inc()
	observability.Logger.DebugContext(ctx, "favorites count resynced",
		slog.String("article_id", articleID),
		slog.Int64("count", count),
	)
	return nil
}
