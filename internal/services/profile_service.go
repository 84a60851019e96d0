package services

import (
	"context"
	"errors"

	"conduit/internal/models"
	"conduit/internal/repositories"
)

// ProfileService resolves profiles by username and applies follow changes to them.
type ProfileService struct {
	users  repositories.UserRepository
	ledger *RelationshipService
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users repositories.UserRepository, ledger *RelationshipService) *ProfileService {
	return &ProfileService{
		users:  users,
		ledger: ledger,
	}
}

// GetProfile returns the named user's profile as seen by viewer.
func (s *ProfileService) GetProfile(ctx context.Context, username string, viewer *models.User) (models.Profile, error) {
	target, err := s.lookup(ctx, username)
	if err != nil {
		return models.Profile{}, err
	}
	return ProjectUser(target, viewer), nil
}

// Follow makes actor follow the named user.
func (s *ProfileService) Follow(ctx context.Context, actor *models.User, username string) (models.Profile, error) {
	target, err := s.lookup(ctx, username)
	if err != nil {
		return models.Profile{}, err
	}
	if err := s.ledger.Follow(ctx, actor, target.ID); err != nil {
		return models.Profile{}, err
	}
	return ProjectUser(target, actor), nil
}

// Unfollow makes actor stop following the named user.
func (s *ProfileService) Unfollow(ctx context.Context, actor *models.User, username string) (models.Profile, error) {
	target, err := s.lookup(ctx, username)
	if err != nil {
		return models.Profile{}, err
	}
	if err := s.ledger.Unfollow(ctx, actor, target.ID); err != nil {
		return models.Profile{}, err
	}
	return ProjectUser(target, actor), nil
}

func (s *ProfileService) lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("profile", username)
		}
		return nil, err
	}
	return user, nil
}
