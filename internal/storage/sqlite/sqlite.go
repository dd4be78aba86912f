// Package sqlite provides a SQLite-backed implementation of the storage.Store
// interface, including the live change notification the session layer
// subscribes to.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/tripledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	notifier *notifier
	closed   atomic.Bool
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, notifier: newNotifier()}, nil
}

// Close closes the database connection and cancels all subscriptions.
// Operations after Close fail with storage.ErrUnavailable.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.notifier.close()
	return s.db.Close()
}

// checkOpen guards every operation against a closed store.
func (s *SQLiteStore) checkOpen() error {
	if s.closed.Load() {
		return storage.ErrUnavailable
	}
	return nil
}

// now returns the RFC 3339 timestamp assigned to new records.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// encodeStringList serializes an ordered list of URIs to the store's TEXT
// representation. nil encodes as the empty list.
func encodeStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

// decodeStringList parses a stored list value. A missing or malformed value
// decodes to an empty list rather than failing the read.
func decodeStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	return list
}
