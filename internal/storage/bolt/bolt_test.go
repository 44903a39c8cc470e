package bolt

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

func TestStore_GetOrCreateAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "users.bbolt")
	ctx := context.Background()
	now := time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC)

	store, err := Open(path)
	require.NoError(t, err)

	user, err := store.GetOrCreate(ctx, 77, now)
	require.NoError(t, err)
	assert.False(t, user.IsSubscribed)
	assert.Empty(t, user.Config)

	require.NoError(t, store.SetConfigField(ctx, 77, models.KeyTargetChannel, "@target"))
	require.NoError(t, store.SetConfigField(ctx, 77, models.KeyPostsCount, models.PostsCountAll))
	require.NoError(t, store.SetSubscribed(ctx, 77, true))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	user, err = reopened.GetOrCreate(ctx, 77, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, user.FirstSeen.Equal(now))
	assert.True(t, user.IsSubscribed)
	assert.Equal(t, "@target", user.Config.String(models.KeyTargetChannel))
	assert.Equal(t, models.PostsCountAll, user.Config.String(models.KeyPostsCount))
}

func TestStore_UpdateUnknownUser(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "users.bbolt"))
	require.NoError(t, err)
	defer store.Close()

	err = store.SetConfigField(context.Background(), 1, models.KeyMode, models.ModeEdit)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_SetConfigFieldIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC)

	store, err := Open(filepath.Join(t.TempDir(), "users.bbolt"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetOrCreate(ctx, 12, now)
	require.NoError(t, err)
	require.NoError(t, store.SetConfigField(ctx, 12, models.KeySourceChannel, "@news"))

	require.NoError(t, store.SetConfigField(ctx, 12, models.KeyMode, models.ModeForward))
	once, err := store.GetOrCreate(ctx, 12, now)
	require.NoError(t, err)

	require.NoError(t, store.SetConfigField(ctx, 12, models.KeyMode, models.ModeForward))
	twice, err := store.GetOrCreate(ctx, 12, now)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Len(t, twice.Config, 2)
}
