// Package bolt implements storage.UserStore on top of an embedded bbolt database.
// Each record is a JSON document in the "users" bucket keyed by the decimal user id.
package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.etcd.io/bbolt"

	"forwardbot/internal/models"
	"forwardbot/internal/storage"
)

const (
	dbFileMode    = 0o600
	dbOpenTimeout = 3 * time.Second
)

var usersBucket = []byte("users")

// Store keeps user documents in a bbolt file
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the bbolt file at path and ensures the users bucket
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrapf(err, "create dir %s", dir)
		}
	}

	db, err := bbolt.Open(path, dbFileMode, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(usersBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create users bucket")
	}

	return &Store{db: db}, nil
}

// GetOrCreate returns the user record, creating it inside the same write transaction
func (s *Store) GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.UserRecord, error) {
	var user models.UserRecord
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(usersBucket)
		raw := b.Get(userKey(userID))
		if raw != nil {
			return decode(raw, &user)
		}

		user = models.NewUserRecord(userID, now)
		return put(b, user)
	})
	if err != nil {
		return models.UserRecord{}, errors.Wrapf(err, "get or create user %d", userID)
	}
	return user, nil
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

// Close closes the bbolt file
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) update(userID int64, mutate func(*models.UserRecord)) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(usersBucket)
		raw := b.Get(userKey(userID))
		if raw == nil {
			return storage.ErrNotFound
		}

		var user models.UserRecord
		if err := decode(raw, &user); err != nil {
			return err
		}
		mutate(&user)
		return put(b, user)
	})
	if err != nil {
		return errors.Wrapf(err, "update user %d", userID)
	}
	return nil
}

func userKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func put(b *bbolt.Bucket, user models.UserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}
	return b.Put(userKey(user.UserID), data)
}

// decode copies out of the bbolt page: raw is only valid inside the transaction
func decode(raw []byte, user *models.UserRecord) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(user); err != nil {
		return errors.Wrap(err, "decode user")
	}
	if user.Config == nil {
		user.Config = models.Config{}
	}
	return nil
}
