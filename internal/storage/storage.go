package storage

import (
	"context"
	"errors"
	"time"

	"forwardbot/internal/models"
)

// ErrNotFound is returned when a user record does not exist
var ErrNotFound = errors.New("record not found")

// UserStore defines the per-user document store
type UserStore interface {
	// GetOrCreate returns the record for userID, creating it with FirstSeen=now,
	// IsSubscribed=false and an empty config when the user is new
	GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.UserRecord, error)

	// SetConfigField upserts a single config key, preserving every other key
	SetConfigField(ctx context.Context, userID int64, key string, value any) error

	// SetSubscribed updates the subscription flag
	SetSubscribed(ctx context.Context, userID int64, subscribed bool) error

	Close() error
}

// LaunchJournal records task submissions
type LaunchJournal interface {
	RecordLaunch(ctx context.Context, launch models.Launch) error

	// RecentLaunches returns the last launches of a user, newest first
	RecentLaunches(ctx context.Context, userID int64, limit int) ([]models.Launch, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
