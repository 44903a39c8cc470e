package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbot/internal/models"
	"forwardbot/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "db", "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_GetOrCreate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	user, err := store.GetOrCreate(ctx, 1001, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), user.UserID)
	assert.False(t, user.IsSubscribed)
	assert.Empty(t, user.Config)

	again, err := store.GetOrCreate(ctx, 1001, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.True(t, again.FirstSeen.Equal(now), "first_seen is immutable")
}

func TestStore_SetConfigField(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, 1, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.SetConfigField(ctx, 1, models.KeyParseTemplate, "Ціна - [сума]"))
	require.NoError(t, store.SetConfigField(ctx, 1, models.KeyMode, models.ModeEdit))
	require.NoError(t, store.SetConfigField(ctx, 1, models.KeyMode, models.ModeEdit))
	require.NoError(t, store.SetSubscribed(ctx, 1, true))

	user, err := store.GetOrCreate(ctx, 1, time.Now())
	require.NoError(t, err)
	assert.True(t, user.IsSubscribed)
	assert.Len(t, user.Config, 2)
	assert.Equal(t, "Ціна - [сума]", user.Config.String(models.KeyParseTemplate))
	assert.Equal(t, models.ModeEdit, user.Config.String(models.KeyMode))
}

func TestStore_UnknownUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.SetConfigField(ctx, 404, models.KeyMode, models.ModeForward)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	err = store.SetSubscribed(ctx, 404, true)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_SetConfigFieldIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	_, err := store.GetOrCreate(ctx, 3, now)
	require.NoError(t, err)
	require.NoError(t, store.SetConfigField(ctx, 3, models.KeyTargetChannel, "@target"))

	require.NoError(t, store.SetConfigField(ctx, 3, models.KeyPostsCount, models.PostsCountAll))
	once, err := store.GetOrCreate(ctx, 3, now)
	require.NoError(t, err)

	require.NoError(t, store.SetConfigField(ctx, 3, models.KeyPostsCount, models.PostsCountAll))
	twice, err := store.GetOrCreate(ctx, 3, now)
	require.NoError(t, err)

	assert.Equal(t, once.Config, twice.Config)
	assert.True(t, once.FirstSeen.Equal(twice.FirstSeen))
	assert.Equal(t, once.IsSubscribed, twice.IsSubscribed)
	assert.Len(t, twice.Config, 2)
}
