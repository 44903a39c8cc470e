package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbot/internal/models"
	"forwardbot/internal/storage"
)

func TestOpen_CreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "users.json")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	store, err := Open(path)
	require.NoError(t, err)

	_, err = store.GetOrCreate(ctx, 100, now)
	require.NoError(t, err)
	require.NoError(t, store.SetConfigField(ctx, 100, models.KeySourceChannel, "@source"))
	require.NoError(t, store.SetConfigField(ctx, 100, models.KeyPostsCount, 42))
	require.NoError(t, store.SetSubscribed(ctx, 100, true))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)

	user, err := reopened.GetOrCreate(ctx, 100, now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.True(t, user.FirstSeen.Equal(now), "first_seen must survive reopen")
	assert.True(t, user.IsSubscribed)
	assert.Equal(t, "@source", user.Config.String(models.KeySourceChannel))
	assert.Equal(t, "42", user.Config.String(models.KeyPostsCount))
	assert.NoError(t, user.Config.Validate())
}

func TestStore_SetConfigFieldPreservesOtherKeys(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.GetOrCreate(ctx, 5, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.SetConfigField(ctx, 5, models.KeyPhone, "+380501112233"))
	require.NoError(t, store.SetConfigField(ctx, 5, models.KeyMode, models.ModeForward))
	require.NoError(t, store.SetConfigField(ctx, 5, models.KeyMode, models.ModeForward))

	user, err := store.GetOrCreate(ctx, 5, time.Now())
	require.NoError(t, err)
	assert.Len(t, user.Config, 2)
	assert.Equal(t, "+380501112233", user.Config.String(models.KeyPhone))
}

func TestStore_UpdateUnknownUser(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)

	err = store.SetSubscribed(context.Background(), 999, true)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_SetConfigFieldIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetOrCreate(ctx, 9, now)
	require.NoError(t, err)
	require.NoError(t, store.SetConfigField(ctx, 9, models.KeySourceChannel, "@news"))

	require.NoError(t, store.SetConfigField(ctx, 9, models.KeyParseTemplate, "[ціна]"))
	once, err := store.GetOrCreate(ctx, 9, now)
	require.NoError(t, err)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.SetConfigField(ctx, 9, models.KeyParseTemplate, "[ціна]"))
	twice, err := store.GetOrCreate(ctx, 9, now)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, string(onDisk), string(again))
}
