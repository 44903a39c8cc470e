package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"forwardbot/internal/models"
	"forwardbot/internal/storage"
)

// userRow is the users table layout. The config map is stored as a JSON column.
type userRow struct {
	UserID       int64         `gorm:"primaryKey;autoIncrement:false"`
	FirstSeen    time.Time     `gorm:"not null"`
	IsSubscribed bool          `gorm:"not null;default:false"`
	Config       models.Config `gorm:"serializer:json"`
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

// Store implements storage.UserStore over SQLite through gorm
type Store struct {
	db *gorm.DB
}

// Open opens a SQLite database and migrates the users table.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "forwardbot.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return &Store{db: db}, nil
}

// GetOrCreate finds the user by id or creates it with an empty config.
func (s *Store) GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.UserRecord, error) {
	var row userRow
	db := s.db.WithContext(ctx)
	err := db.Where("user_id = ?", userID).First(&row).Error
	switch {
	case err == nil:
		return toRecord(row), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = userRow{
			UserID:    userID,
			FirstSeen: now,
			Config:    models.Config{},
		}
		if err := db.Create(&row).Error; err != nil {
			return models.UserRecord{}, fmt.Errorf("create user: %w", err)
		}
		return toRecord(row), nil
	default:
		return models.UserRecord{}, fmt.Errorf("find user: %w", err)
	}
}

// SetConfigField loads the row, sets one key and saves the whole config column.
func (s *Store) SetConfigField(ctx context.Context, userID int64, key string, value any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
			}
			return fmt.Errorf("find user: %w", err)
		}
		if row.Config == nil {
			row.Config = models.Config{}
		}
		row.Config[key] = value
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("update config: %w", err)
		}
		return nil
	})
}

// SetSubscribed updates the subscription flag.
func (s *Store) SetSubscribed(ctx context.Context, userID int64, subscribed bool) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("user_id = ?", userID).Update("is_subscribed", subscribed)
	if res.Error != nil {
		return fmt.Errorf("update subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}
	return nil
}

// Close closes the underlying sql.DB.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(row userRow) models.UserRecord {
	cfg := row.Config
	if cfg == nil {
		cfg = models.Config{}
	}
	return models.UserRecord{
		UserID:       row.UserID,
		FirstSeen:    row.FirstSeen,
		IsSubscribed: row.IsSubscribed,
		Config:       cfg,
	}
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
