package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends for user records
const (
	BackendJSON   = "json"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the application configuration
type Config struct {
	BotToken        string `envconfig:"BOT_TOKEN"`
	OwnerID         int64  `envconfig:"OWNER_ID"`
	ChannelUsername string `envconfig:"CHANNEL_USERNAME"`

	// Full access window after the first message of a user
	TrialPeriod time.Duration `envconfig:"TRIAL_PERIOD" default:"24h"`

	// Worker that verifies login codes and runs forwarding tasks
	WorkerURL     string        `envconfig:"WORKER_URL" default:"http://localhost:8000"`
	WorkerTimeout time.Duration `envconfig:"WORKER_TIMEOUT" default:"5s"`

	// User store
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"json"`
	UsersFile      string `envconfig:"USERS_FILE" default:"config/users.json"`
	BoltFile       string `envconfig:"BOLT_FILE" default:"data/users.bbolt"`
	SQLiteDSN      string `envconfig:"SQLITE_DSN" default:"data/forwardbot.db"`

	// Outbound Bot API messages per second
	SendRPS int `envconfig:"SEND_RPS" default:"25"`

	// Bot mode configuration
	WebhookMode bool   `envconfig:"WEBHOOK_MODE"` // If true, use webhook mode; if false, use polling mode
	WebhookURL  string `envconfig:"WEBHOOK_URL"`  // URL for webhook (required if WebhookMode is true)
	Port        string `envconfig:"PORT" default:"8080"`

	// Logging
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile           string `envconfig:"LOG_FILE"`
	LogFileMaxSize    int    `envconfig:"LOG_FILE_MAX_SIZE" default:"50"`
	LogFileMaxBackups int    `envconfig:"LOG_FILE_MAX_BACKUPS" default:"3"`
	LogFileMaxAge     int    `envconfig:"LOG_FILE_MAX_AGE" default:"7"`
	LogFileCompress   bool   `envconfig:"LOG_FILE_COMPRESS" default:"true"`

	// ClickHouse launch journal (disabled when host is empty)
	ClickHouseHost     string `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePort     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	ClickHouseDatabase string `envconfig:"CLICKHOUSE_DATABASE" default:"default"`
	ClickHouseUser     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	ClickHousePassword string `envconfig:"CLICKHOUSE_PASSWORD"`
	ClickHouseUseTLS   bool   `envconfig:"CLICKHOUSE_USE_TLS"`
}

// JournalEnabled reports whether launches are recorded in ClickHouse
func (c *Config) JournalEnabled() bool {
	return c.ClickHouseHost != ""
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required values and normalizes the rest
func (c *Config) Validate() error {
	c.BotToken = strings.TrimSpace(c.BotToken)
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	if c.OwnerID == 0 {
		return fmt.Errorf("OWNER_ID is required (Telegram user ID of the bot owner)")
	}

	c.ChannelUsername = strings.TrimSpace(c.ChannelUsername)
	if c.ChannelUsername == "" {
		return fmt.Errorf("CHANNEL_USERNAME is required (@username or ID of the channel users must join)")
	}

	if c.WebhookMode && c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
	}

	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendJSON, BackendBolt, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q; allowed: json, bolt, sqlite, memory", c.StorageBackend)
	}

	c.WorkerURL = strings.TrimRight(strings.TrimSpace(c.WorkerURL), "/")
	if c.WorkerURL == "" {
		return fmt.Errorf("WORKER_URL must not be empty")
	}
	if c.WorkerTimeout <= 0 {
		return fmt.Errorf("WORKER_TIMEOUT must be positive")
	}
	if c.TrialPeriod < 0 {
		return fmt.Errorf("TRIAL_PERIOD must be >= 0")
	}
	if c.SendRPS <= 0 {
		return fmt.Errorf("SEND_RPS must be positive")
	}

	return nil
}
