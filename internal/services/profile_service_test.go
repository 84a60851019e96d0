package services_test

import (
	"context"
	"testing"

	"conduit/internal/models"
	"conduit/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	profiles := services.NewProfileService(f.users, f.ledger)
	a := f.user(t, "alice")
	f.user(t, "bob")

	profile, err := profiles.GetProfile(ctx, "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, models.Profile{Username: "bob", Image: models.DefaultImage}, profile)

	profile, err = profiles.Follow(ctx, a, "bob")
	require.NoError(t, err)
	assert.True(t, profile.Following)

	profile, err = profiles.GetProfile(ctx, "BOB", a)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	profile, err = profiles.Unfollow(ctx, a, "bob")
	require.NoError(t, err)
	assert.False(t, profile.Following)

	_, err = profiles.GetProfile(ctx, "nobody", a)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = profiles.Follow(ctx, a, "nobody")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
