// Package jsonfile implements storage.UserStore as a single JSON document file.
//
// The file maps the decimal user id to its record. It is created as "{}" when
// missing, read fully on open and rewritten atomically after every mutation.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"forwardbot/internal/models"
	"forwardbot/internal/storage"
)

const filePerm = 0o600

// Store is a file-backed user document store
type Store struct {
	path  string
	mu    sync.Mutex
	users map[string]models.UserRecord
}

// Open loads the document at path, creating it as an empty object if absent
func Open(path string) (*Store, error) {
	clean := filepath.Clean(path)
	if err := ensureDir(clean); err != nil {
		return nil, err
	}

	if _, err := os.Stat(clean); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(clean, []byte("{}"), filePerm); err != nil {
			return nil, fmt.Errorf("create %s: %w", clean, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", clean, err)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}

	users := make(map[string]models.UserRecord)
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&users); err != nil {
			return nil, fmt.Errorf("decode %s: %w", clean, err)
		}
	}

	return &Store{path: clean, users: users}, nil
}

// GetOrCreate returns the user record, creating and persisting it on first contact
func (s *Store) GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(userID, 10)
	if user, ok := s.users[key]; ok {
		return detach(user), nil
	}

	user := models.NewUserRecord(userID, now)
	s.users[key] = user
	if err := s.flushLocked(); err != nil {
		delete(s.users, key)
		return models.UserRecord{}, err
	}
	return detach(user), nil
}

// SetConfigField upserts a single config key
func (s *Store) SetConfigField(ctx context.Context, userID int64, key string, value any) error {
	return s.update(userID, func(user *models.UserRecord) {
		user.Config[key] = value
	})
}

// SetSubscribed updates the subscription flag
func (s *Store) SetSubscribed(ctx context.Context, userID int64, subscribed bool) error {
	return s.update(userID, func(user *models.UserRecord) {
		user.IsSubscribed = subscribed
	})
}

// Close flushes nothing: every mutation is already on disk
func (s *Store) Close() error {
	return nil
}

func (s *Store) update(userID int64, mutate func(*models.UserRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(userID, 10)
	prev, ok := s.users[key]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, storage.ErrNotFound)
	}

	next := detach(prev)
	mutate(&next)
	s.users[key] = next
	if err := s.flushLocked(); err != nil {
		s.users[key] = prev
		return err
	}
	return nil
}

func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return atomicWriteFile(s.path, data)
}

func detach(user models.UserRecord) models.UserRecord {
	if user.Config == nil {
		user.Config = models.Config{}
	} else {
		user.Config = user.Config.Clone()
	}
	return user
}

// atomicWriteFile writes data to a temp file in the same directory, syncs it and
// renames it over path, so readers see either the old or the new document.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "users-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}
