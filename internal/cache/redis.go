// Package cache provides the Redis-backed username lookup cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repositories"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a username stays mapped to an id.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "conduit:username:"

// NewClient connects to Redis at addr, which may be a redis:// URL or host:port.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CachedUserRepository caches username to id lookups in front of another UserRepository.
// Only the id is cached; the user and its relation sets are always read from the inner repository.
type CachedUserRepository struct {
	repositories.UserRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedUserRepository wraps inner with a Redis cache. ttl <= 0 uses DefaultTTL.
func NewCachedUserRepository(inner repositories.UserRepository, client *redis.Client, ttl time.Duration) *CachedUserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedUserRepository{
		UserRepository: inner,
		client:         client,
		ttl:            ttl,
	}
}

func usernameKey(username string) string {
	return keyPrefix + strings.ToLower(username)
}

// GetByUsername resolves the id from the cache when possible. Cache failures fall back to the inner repository.
func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	key := usernameKey(username)

	id, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		user, getErr := r.UserRepository.GetByID(ctx, id)
		if getErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return user, nil
		}
		if !errors.Is(getErr, repositories.ErrNotFound) {
			return nil, getErr
		}
		// The cached id points at a user that no longer exists.
		r.client.Del(ctx, key)
		observability.CacheLookups.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues("miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues("error").Inc()
		observability.Logger.WarnContext(ctx, "username cache unavailable", slog.String("error", err.Error()))
	}

	user, err := r.UserRepository.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if setErr := r.client.Set(ctx, key, user.ID, r.ttl).Err(); setErr != nil {
		observability.Logger.WarnContext(ctx, "failed to cache username", slog.String("error", setErr.Error()))
	}
	return user, nil
}
