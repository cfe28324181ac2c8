package kv

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLite is a file-backed Store, the local equivalent of browser storage.
type SQLite struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string, timeout time.Duration) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	// one writer; keeps last-write-wins ordering trivial
	db.SetMaxOpenConns(1)

	s := NewSQLite(db, timeout)
	ctx, cancel := s.ctx()
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrate sqlite db")
	}
	return s, nil
}

// NewSQLite wraps an already opened database; the schema must exist.
func NewSQLite(db *sqlx.DB, timeout time.Duration) *SQLite {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SQLite{db: db, timeout: timeout}
}

func (s *SQLite) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SQLite) Get(key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrNotConfigured
	}
	ctx, cancel := s.ctx()
	defer cancel()

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "sqlite get %s", key)
	}
	return value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "sqlite set %s", key)
	}
	return nil
}

// Close releases the underlying connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
