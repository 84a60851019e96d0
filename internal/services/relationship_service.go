package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repositories"
)

// EventPublisher delivers relationship events to interested consumers.
type EventPublisher interface {
	PublishRelationshipEvent(event models.RelationshipEvent) error
}

// RelationshipService is the ledger of follow and favorite relations.
// All writes go to the acting user's sets; the target is never written, except that
// favorite changes resync the target article's derived count.
type RelationshipService struct {
	users   repositories.UserRepository
	counter *FavoriteCounter
	events  EventPublisher
}

// NewRelationshipService creates a new RelationshipService. events may be nil.
func NewRelationshipService(users repositories.UserRepository, counter *FavoriteCounter, events EventPublisher) *RelationshipService {
	return &RelationshipService{
		users:   users,
		counter: counter,
		events:  events,
	}
}

// Follow adds targetUserID to actor's following set.
func (s *RelationshipService) Follow(ctx context.Context, actor *models.User, targetUserID string) error {
	if actor == nil {
		return models.NewUnauthorizedError("authentication required")
	}
	if err := s.users.AddFollowing(ctx, actor.ID, targetUserID); err != nil {
		return err
	}
	actor.Following.Add(targetUserID)
	s.completed(ctx, "follow", "add", models.EventFollowed, actor.ID, targetUserID)
	return nil
}

// Unfollow removes targetUserID from actor's following set.
func (s *RelationshipService) Unfollow(ctx context.Context, actor *models.User, targetUserID string) error {
	if actor == nil {
		return models.NewUnauthorizedError("authentication required")
	}
	if err := s.users.RemoveFollowing(ctx, actor.ID, targetUserID); err != nil {
		return err
	}
	actor.Following.Remove(targetUserID)
	s.completed(ctx, "follow", "remove", models.EventUnfollowed, actor.ID, targetUserID)
	return nil
}

// Favorite adds articleID to actor's favorites and resyncs the article's count.
// If the resync fails the membership change stays persisted and the error is returned.
func (s *RelationshipService) Favorite(ctx context.Context, actor *models.User, articleID string) error {
	if actor == nil {
		return models.NewUnauthorizedError("authentication required")
	}
	if err := s.users.AddFavorite(ctx, actor.ID, articleID); err != nil {
		return err
	}
	actor.Favorites.Add(articleID)
	if err := s.counter.Resync(ctx, articleID); err != nil {
		return fmt.Errorf("favorite recorded, count not resynced: %w", err)
	}
	s.completed(ctx, "favorite", "add", models.EventFavorited, actor.ID, articleID)
	return nil
}

// Unfavorite removes articleID from actor's favorites and resyncs the article's count.
func (s *RelationshipService) Unfavorite(ctx context.Context, actor *models.User, articleID string) error {
	if actor == nil {
		return models.NewUnauthorizedError("authentication required")
	}
	if err := s.users.RemoveFavorite(ctx, actor.ID, articleID); err != nil {
		return err
	}
	actor.Favorites.Remove(articleID)
	if err := s.counter.Resync(ctx, articleID); err != nil {
		return fmt.Errorf("unfavorite recorded, count not resynced: %w", err)
	}
	s.completed(ctx, "favorite", "remove", models.EventUnfavorited, actor.ID, articleID)
	return nil
}

// completed records metrics and publishes the event. Publishing is best effort.
func (s *RelationshipService) completed(ctx context.Context, relation, operation string, eventType models.RelationshipEventType, actorID, targetID string) {
	observability.RelationshipMutations.WithLabelValues(relation, operation).Inc()

	if s.events == nil {
		return
	}
	event := models.RelationshipEvent{
		Type:       eventType,
		ActorID:    actorID,
		TargetID:   targetID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishRelationshipEvent(event); err != nil {
		observability.EventPublishFailures.Inc()
		observability.Logger.WarnContext(ctx, "failed to publish relationship event",
			slog.String("type", string(eventType)),
			slog.String("actor_id", actorID),
			slog.String("target_id", targetID),
			slog.String("error", err.Error()),
		)
	}
}
