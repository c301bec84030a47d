package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// credentialKey is the single well-known slot in the state table.
const credentialKey = "credential"

// schema contains the DDL for the client state table.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the state table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Credential returns the stored token, or "" if none is stored.
func (s *SQLiteStore) Credential(ctx context.Context) (string, error) {
	s.logger.Debug("sql", "op", "select", "key", credentialKey)

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM state WHERE key = ?`, credentialKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return value, nil
}

// SetCredential stores the token, replacing any previous one.
func (s *SQLiteStore) SetCredential(ctx context.Context, token string) error {
	s.logger.Debug("sql", "op", "upsert", "key", credentialKey)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		credentialKey, token, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// ClearCredential removes the stored token.
func (s *SQLiteStore) ClearCredential(ctx context.Context) error {
	s.logger.Debug("sql", "op", "delete", "key", credentialKey)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM state WHERE key = ?`, credentialKey,
	)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
