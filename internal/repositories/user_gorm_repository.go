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

// GORMUserRepository is a GORM implementation of UserRepository.
// Relationship sets live in the follows and favorites tables, one row per member.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create user %s: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", strings.ToLower(username))
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", strings.ToLower(email))
}

func (r *GORMUserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	db := r.db.WithContext(ctx)
	if err := db.First(&user, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s %s: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s %s: %w", column, value, err)
	}

	var following, favorites []string
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", user.ID).Pluck("followee_id", &following).Error; err != nil {
		return nil, fmt.Errorf("failed to load following for user %s: %w", user.ID, err)
	}
	if err := db.Model(&models.Favorite{}).Where("user_id = ?", user.ID).Pluck("article_id", &favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorites for user %s: %w", user.ID, err)
	}
	user.Following = models.NewIDSet(following...)
	user.Favorites = models.NewIDSet(favorites...)
	return &user, nil
}

// AddFollowing inserts a follows row, ignoring an existing one.
func (r *GORMUserRepository) AddFollowing(ctx context.Context, userID, targetUserID string) error {
	row := &models.Follow{FollowerID: userID, FolloweeID: targetUserID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to add %s to following of %s: %w", targetUserID, userID, err)
	}
	return nil
}

// RemoveFollowing deletes a follows row if present.
func (r *GORMUserRepository) RemoveFollowing(ctx context.Context, userID, targetUserID string) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", userID, targetUserID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s from following of %s: %w", targetUserID, userID, err)
	}
	return nil
}

// AddFavorite inserts a favorites row, ignoring an existing one.
func (r *GORMUserRepository) AddFavorite(ctx context.Context, userID, articleID string) error {
	row := &models.Favorite{UserID: userID, ArticleID: articleID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to add %s to favorites of %s: %w", articleID, userID, err)
	}
	return nil
}

// RemoveFavorite deletes a favorites row if present.
func (r *GORMUserRepository) RemoveFavorite(ctx context.Context, userID, articleID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s from favorites of %s: %w", articleID, userID, err)
	}
	return nil
}

// CountFavoritedBy counts favorites rows for the article.
func (r *GORMUserRepository) CountFavoritedBy(ctx context.Context, articleID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Favorite{}).Where("article_id = ?", articleID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count favorites of article %s: %w", articleID, err)
	}
	return count, nil
}
