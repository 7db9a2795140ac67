package ssosession

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arga-sso/ssoauthority/internal/cache"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewCache(cache.Config{Host: mr.Host(), Port: mr.Port(), Enabled: true})
	require.NoError(t, err)
	return NewStore(c, time.Hour)
}

func TestCreateThenValidateRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1", "1.2.3.4")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	record, err := store.Validate(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "user-1", record.UserID)
}

func TestCreateReplacesPreviousSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "user-1", "")
	require.NoError(t, err)

	second, err := store.Create(ctx, "user-1", "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	old, err := store.Validate(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, old)
	record, err := store.Validate(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestDeleteRemovesBothKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1", "")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "user-1"))

	record, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1", "")
	require.NoError(t, err)

	newToken, err := store.Refresh(ctx, token)
	require.NoError(t, err)
	assert.NotEqual(t, token, newToken)

	old, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, old)
	record, err := store.Validate(ctx, newToken)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestValidateFailsOnUnknownToken(t *testing.T) {
	store := newTestStore(t)
	record, err := store.Validate(context.Background(), "not-a-real-token")
	require.NoError(t, err)
	assert.Nil(t, record)
}
