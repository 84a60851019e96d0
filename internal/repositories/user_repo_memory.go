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

// InMemoryUserRepository is an in-memory implementation of UserRepository.
// Each relationship write holds the lock for a single set element, which mirrors
// the row-level atomicity of the GORM implementation.
type InMemoryUserRepository struct {
	users      map[string]models.User
	byUsername map[string]string
	byEmail    map[string]string
	following  map[string]models.IDSet
	favorites  map[string]models.IDSet
	mu         sync.RWMutex
}

// NewInMemoryUserRepository creates a new instance of InMemoryUserRepository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:      make(map[string]models.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		following:  make(map[string]models.IDSet),
		favorites:  make(map[string]models.IDSet),
	}
}

// Create adds a new user.
func (r *InMemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, email := strings.ToLower(user.Username), strings.ToLower(user.Email)
	if _, taken := r.byUsername[username]; taken {
		return fmt.Errorf("failed to create user %s: %w", user.Username, ErrDuplicate)
	}
	if _, taken := r.byEmail[email]; taken {
		return fmt.Errorf("failed to create user %s: %w", user.Username, ErrDuplicate)
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	stored.Following, stored.Favorites = nil, nil
	r.users[user.ID] = stored
	r.byUsername[username] = user.ID
	r.byEmail[email] = user.ID
	return nil
}

// GetByID returns a user by its ID.
func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(id, "id", id)
}

// GetByUsername returns a user by username, ignoring case.
func (r *InMemoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(r.byUsername[strings.ToLower(username)], "username", username)
}

// GetByEmail returns a user by email, ignoring case.
func (r *InMemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(r.byEmail[strings.ToLower(email)], "email", email)
}

// load must be called with r.mu held.
func (r *InMemoryUserRepository) load(id, column, value string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with %s %s: %w", column, value, ErrNotFound)
	}
	user.Following = r.following[id].Clone()
	user.Favorites = r.favorites[id].Clone()
	return &user, nil
}

// AddFollowing adds targetUserID to the user's following set.
func (r *InMemoryUserRepository) AddFollowing(_ context.Context, userID, targetUserID string) error {
	return r.mutate(r.following, userID, func(s *models.IDSet) { s.Add(targetUserID) })
}

// RemoveFollowing removes targetUserID from the user's following set.
func (r *InMemoryUserRepository) RemoveFollowing(_ context.Context, userID, targetUserID string) error {
	return r.mutate(r.following, userID, func(s *models.IDSet) { s.Remove(targetUserID) })
}

// AddFavorite adds articleID to the user's favorites set.
func (r *InMemoryUserRepository) AddFavorite(_ context.Context, userID, articleID string) error {
	return r.mutate(r.favorites, userID, func(s *models.IDSet) { s.Add(articleID) })
}

// RemoveFavorite removes articleID from the user's favorites set.
func (r *InMemoryUserRepository) RemoveFavorite(_ context.Context, userID, articleID string) error {
	return r.mutate(r.favorites, userID, func(s *models.IDSet) { s.Remove(articleID) })
}

func (r *InMemoryUserRepository) mutate(sets map[string]models.IDSet, userID string, apply func(*models.IDSet)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return fmt.Errorf("user with id %s: %w", userID, ErrNotFound)
	}
	set := sets[userID]
	apply(&set)
	sets[userID] = set
	return nil
}

// CountFavoritedBy counts users whose favorites contain articleID.
func (r *InMemoryUserRepository) CountFavoritedBy(_ context.Context, articleID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, set := range r.favorites {
		if set.Has(articleID) {
			count++
		}
	}
	return count, nil
}
