package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "4242")
	t.Setenv("CHANNEL_USERNAME", "@owner_channel")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(4242), cfg.OwnerID)
	assert.Equal(t, "@owner_channel", cfg.ChannelUsername)
	assert.Equal(t, 24*time.Hour, cfg.TrialPeriod)
	assert.Equal(t, "http://localhost:8000", cfg.WorkerURL)
	assert.Equal(t, 5*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, BackendJSON, cfg.StorageBackend)
	assert.Equal(t, "config/users.json", cfg.UsersFile)
	assert.False(t, cfg.WebhookMode)
	assert.False(t, cfg.JournalEnabled())
}

func TestLoadFromEnv_MissingRequired(t *testing.T) {
	testCases := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"token", "BOT_TOKEN", "BOT_TOKEN is required"},
		{"owner", "OWNER_ID", "OWNER_ID is required"},
		{"channel", "CHANNEL_USERNAME", "CHANNEL_USERNAME is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.unset, "")
			require.NoError(t, os.Unsetenv(tc.unset))

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFromEnv_InvalidOwnerID(t *testing.T) {
	setRequired(t)
	t.Setenv("OWNER_ID", "not-a-number")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnv_WebhookRequiresURL(t *testing.T) {
	setRequired(t)
	t.Setenv("WEBHOOK_MODE", "true")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_URL is required")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("WORKER_URL", "http://worker:9000/")
	t.Setenv("TRIAL_PERIOD", "1h")
	t.Setenv("CLICKHOUSE_HOST", "clickhouse")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "http://worker:9000", cfg.WorkerURL)
	assert.Equal(t, time.Hour, cfg.TrialPeriod)
	assert.True(t, cfg.JournalEnabled())
	assert.Equal(t, 9000, cfg.ClickHousePort)
}

func TestLoadFromEnv_InvalidBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "redis")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid STORAGE_BACKEND")
}
