package stubs

import (
	"context"
	"forwardbot/internal/models"
	"sort"
	"sync"
	"time"
)

// MockDB is an in-memory implementation of UserStore and LaunchJournal for tests
// and for STORAGE_BACKEND=memory
type MockDB struct {
	mu       sync.RWMutex
	users    map[int64]models.UserRecord
	launches []models.Launch
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		users:    make(map[int64]models.UserRecord),
		launches: make([]models.Launch, 0),
	}
}

// Initialize is a no-op for the in-memory journal
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// GetOrCreate returns the user record, creating it on first contact
func (m *MockDB) GetOrCreate(ctx context.Context, userID int64, now time.Time) (models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		user = models.NewUserRecord(userID, now)
		m.users[userID] = user
	}

	return copyRecord(user), nil
}

// SetConfigField upserts a single config key
func (m *MockDB) SetConfigField(ctx context.Context, userID int64, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		user = models.NewUserRecord(userID, time.Now())
	}
	cfg := user.Config.Clone()
	cfg[key] = value
	user.Config = cfg
	m.users[userID] = user

	return nil
}

// SetSubscribed updates the subscription flag
func (m *MockDB) SetSubscribed(ctx context.Context, userID int64, subscribed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		user = models.NewUserRecord(userID, time.Now())
	}
	user.IsSubscribed = subscribed
	m.users[userID] = user

	return nil
}

// Put stores a record as is. Used by tests to seed users with a given first_seen.
func (m *MockDB) Put(user models.UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.Config == nil {
		user.Config = models.Config{}
	}
	m.users[user.UserID] = copyRecord(user)
}

// Count returns the number of stored users
func (m *MockDB) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// RecordLaunch appends a launch to the journal
func (m *MockDB) RecordLaunch(ctx context.Context, launch models.Launch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.launches = append(m.launches, launch)
	return nil
}

// RecentLaunches returns the last N launches of a user
func (m *MockDB) RecentLaunches(ctx context.Context, userID int64, limit int) ([]models.Launch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var launches []models.Launch
	for _, l := range m.launches {
		if l.UserID == userID {
			launches = append(launches, l)
		}
	}

	// Sort by submission time descending
	sort.SliceStable(launches, func(i, j int) bool {
		return launches[i].SubmittedAt.After(launches[j].SubmittedAt)
	})

	if limit > 0 && limit < len(launches) {
		launches = launches[:limit]
	}

	return launches, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func copyRecord(user models.UserRecord) models.UserRecord {
	user.Config = user.Config.Clone()
	return user
}
