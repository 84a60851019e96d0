package repositories

import (
	"context"

	"conduit/internal/models"
)

// UserRepository defines the interface for user data access.
// Users returned by the getters carry their Following and Favorites sets.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Set-membership writes on the owning user's relations. Adding a present
	// member and removing an absent one both succeed without changes.
	AddFollowing(ctx context.Context, userID, targetUserID string) error
	RemoveFollowing(ctx context.Context, userID, targetUserID string) error
	AddFavorite(ctx context.Context, userID, articleID string) error
	RemoveFavorite(ctx context.Context, userID, articleID string) error

	// CountFavoritedBy counts users whose favorites contain articleID.
	CountFavoritedBy(ctx context.Context, articleID string) (int64, error)
}
