package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSlot stores the snapshot as one row of a key-value table.
type SQLiteSlot struct {
	db   *sql.DB
	key  string
	path string
}

// NewSQLiteSlot opens or creates a SQLite database at the given path.
func NewSQLiteSlot(dbPath, key string) (*SQLiteSlot, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable(err, "create db dir")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, unavailable(err, "open db")
	}

	s := &SQLiteSlot{db: db, key: key, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, unavailable(err, "migrate")
	}
	return s, nil
}

func (s *SQLiteSlot) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteSlot) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, unavailable(err, "load snapshot")
	}
	return []byte(value), nil
}

func (s *SQLiteSlot) Save(ctx context.Context, data []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(data), now)
	if err != nil {
		return unavailable(err, "save snapshot")
	}
	return nil
}

// UpdatedAt reports when the slot was last written.
func (s *SQLiteSlot) UpdatedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key = ?`, s.key).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return time.Time{}, unavailable(err, "read updated_at")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

func (s *SQLiteSlot) Path() string { return s.path }

func (s *SQLiteSlot) Backend() string { return "sqlite" }

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
