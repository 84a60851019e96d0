package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"conduit/internal/models"
	"conduit/internal/repositories"
	"conduit/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.RelationshipEvent
	err    error
}

func (p *recordingPublisher) PublishRelationshipEvent(event models.RelationshipEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type ledgerFixture struct {
	users    *repositories.InMemoryUserRepository
	articles *repositories.InMemoryArticleRepository
	ledger   *services.RelationshipService
	events   *recordingPublisher
}

func newLedgerFixture() *ledgerFixture {
	users := repositories.NewInMemoryUserRepository()
	articles := repositories.NewInMemoryArticleRepository(users)
	events := &recordingPublisher{}
	counter := services.NewFavoriteCounter(users, articles)
	return &ledgerFixture{
		users:    users,
		articles: articles,
		ledger:   services.NewRelationshipService(users, counter, events),
		events:   events,
	}
}

func (f *ledgerFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, f.users.Create(context.Background(), u))
	loaded, err := f.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	return loaded
}

func (f *ledgerFixture) article(t *testing.T, author *models.User, title string) *models.Article {
	t.Helper()
	a := &models.Article{Title: title, AuthorID: author.ID}
	require.NoError(t, f.articles.Create(context.Background(), a))
	return a
}

func (f *ledgerFixture) count(t *testing.T, articleID string) int64 {
	t.Helper()
	a, err := f.articles.GetByID(context.Background(), articleID)
	require.NoError(t, err)
	return a.FavoritesCount
}

func TestRelationshipService_FollowScenario(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	a, b := f.user(t, "alice"), f.user(t, "bob")

	require.NoError(t, f.ledger.Follow(ctx, a, b.ID))
	assert.True(t, services.ProjectUser(b, a).Following)

	require.NoError(t, f.ledger.Unfollow(ctx, a, b.ID))
	assert.False(t, services.ProjectUser(b, a).Following)

	stored, err := f.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Following.Slice())

	require.Len(t, f.events.events, 2)
	assert.Equal(t, models.EventFollowed, f.events.events[0].Type)
	assert.Equal(t, b.ID, f.events.events[0].TargetID)
	assert.Equal(t, models.EventUnfollowed, f.events.events[1].Type)
}

func TestRelationshipService_Idempotence(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	a, b := f.user(t, "alice"), f.user(t, "bob")
	x := f.article(t, b, "Article X")

	for i := 0; i < 2; i++ {
		require.NoError(t, f.ledger.Follow(ctx, a, b.ID))
		require.NoError(t, f.ledger.Favorite(ctx, a, x.ID))
	}
	stored, err := f.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, stored.Following.Slice())
	assert.Equal(t, []string{x.ID}, stored.Favorites.Slice())
	assert.EqualValues(t, 1, f.count(t, x.ID))

	for i := 0; i < 2; i++ {
		require.NoError(t, f.ledger.Unfollow(ctx, a, b.ID))
		require.NoError(t, f.ledger.Unfavorite(ctx, a, x.ID))
	}
	stored, err = f.users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Following.Slice())
	assert.Empty(t, stored.Favorites.Slice())
	assert.EqualValues(t, 0, f.count(t, x.ID))
}

func TestRelationshipService_FavoriteCountScenario(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	a, c, author := f.user(t, "alice"), f.user(t, "carol"), f.user(t, "author")
	x := f.article(t, author, "Article X")
	assert.EqualValues(t, 0, f.count(t, x.ID))

	require.NoError(t, f.ledger.Favorite(ctx, a, x.ID))
	require.NoError(t, f.ledger.Favorite(ctx, c, x.ID))
	assert.EqualValues(t, 2, f.count(t, x.ID))

	require.NoError(t, f.ledger.Unfavorite(ctx, a, x.ID))
	assert.EqualValues(t, 1, f.count(t, x.ID))

	reloaded, err := f.articles.GetByID(ctx, x.ID)
	require.NoError(t, err)
	assert.False(t, services.ProjectArticle(reloaded, a).Favorited)
	assert.True(t, services.ProjectArticle(reloaded, c).Favorited)
}

func TestRelationshipService_CountInvariantUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	author := f.user(t, "author")
	x := f.article(t, author, "Popular")

	actors := make([]*models.User, 20)
	for i := range actors {
		actors[i] = f.user(t, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	for i, actor := range actors {
		i, actor := i, actor
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.ledger.Favorite(ctx, actor, x.ID))
			if i%2 == 0 {
				assert.NoError(t, f.ledger.Unfavorite(ctx, actor, x.ID))
			}
		}()
	}
	wg.Wait()

	// Concurrent resyncs may finish out of order; the next change on the article heals the count.
	require.NoError(t, f.ledger.Favorite(ctx, actors[1], x.ID))

	expected, err := f.users.CountFavoritedBy(ctx, x.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, expected)
	assert.Equal(t, expected, f.count(t, x.ID))
}

func TestRelationshipService_NilActor(t *testing.T) {
	f := newLedgerFixture()
	err := f.ledger.Follow(context.Background(), nil, "someone")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
	err = f.ledger.Favorite(context.Background(), nil, "article")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestRelationshipService_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	f.events.err = errors.New("broker down")
	a, b := f.user(t, "alice"), f.user(t, "bob")

	require.NoError(t, f.ledger.Follow(ctx, a, b.ID))
	assert.True(t, a.IsFollowing(b.ID))
}

func TestRelationshipService_NilPublisher(t *testing.T) {
	users := repositories.NewInMemoryUserRepository()
	articles := repositories.NewInMemoryArticleRepository(users)
	ledger := services.NewRelationshipService(users, services.NewFavoriteCounter(users, articles), nil)

	u := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(context.Background(), u))
	assert.NoError(t, ledger.Follow(context.Background(), u, "bob-id"))
}

func TestRelationshipService_ResyncFailureKeepsMembership(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	articles := repositories.NewInMemoryArticleRepository(mockRepo)
	ledger := services.NewRelationshipService(mockRepo, services.NewFavoriteCounter(mockRepo, articles), nil)
	actor := &models.User{ID: "user-1"}

	mockRepo.On("AddFavorite", ctx, "user-1", "article-1").Return(nil).Once()
	mockRepo.On("CountFavoritedBy", ctx, "article-1").Return(int64(0), errors.New("timeout")).Once()

	err := ledger.Favorite(ctx, actor, "article-1")
	assert.ErrorContains(t, err, "timeout")
	assert.True(t, actor.IsFavorite("article-1"))
	mockRepo.AssertExpectations(t)
}

func TestRelationshipService_StoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	articles := repositories.NewInMemoryArticleRepository(mockRepo)
	ledger := services.NewRelationshipService(mockRepo, services.NewFavoriteCounter(mockRepo, articles), nil)
	actor := &models.User{ID: "user-1"}

	mockRepo.On("AddFollowing", ctx, "user-1", "user-2").Return(errors.New("connection lost")).Once()

	err := ledger.Follow(ctx, actor, "user-2")
	assert.ErrorContains(t, err, "connection lost")
	assert.False(t, actor.IsFollowing("user-2"))
	mockRepo.AssertNotCalled(t, "CountFavoritedBy", mock.Anything, mock.Anything)
}
