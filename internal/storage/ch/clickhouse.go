package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"forwardbot/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseDB is the launch journal backed by ClickHouse
type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// RecordLaunch appends one submission to the launches table
func (db *ClickHouseDB) RecordLaunch(ctx context.Context, launch models.Launch) error {
	err := db.conn.Exec(ctx, `INSERT INTO launches (user_id, submitted_at, outcome, message, config) VALUES (?, ?, ?, ?, ?)`,
		launch.UserID, launch.SubmittedAt, string(launch.Outcome), launch.Message, launch.Config)
	if err != nil {
		return fmt.Errorf("failed to record launch: %w", err)
	}
	return nil
}

// RecentLaunches returns the last N launches of a user
func (db *ClickHouseDB) RecentLaunches(ctx context.Context, userID int64, limit int) ([]models.Launch, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT user_id, submitted_at, outcome, message, config
		FROM launches
		WHERE user_id = ?
		ORDER BY submitted_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent launches: %w", err)
	}
	defer rows.Close()

	var launches []models.Launch
	for rows.Next() {
		var (
			launch  models.Launch
			outcome string
		)
		if err := rows.Scan(&launch.UserID, &launch.SubmittedAt, &outcome, &launch.Message, &launch.Config); err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		launch.Outcome = models.LaunchOutcome(outcome)
		launches = append(launches, launch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate launches: %w", err)
	}
	return launches, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
