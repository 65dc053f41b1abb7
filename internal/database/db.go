package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "github.com/lib/pq"

	"github.com/krishnaqnq/todo/pkg/logger"
)

// ErrNotConfigured is returned when no database URL was provided.
var ErrNotConfigured = errors.New("database: DATABASE_URL is not set")

// Pool is the process-wide handle to the postgres connection pool. The pool
// is established lazily under a lock: concurrent callers wait for the same
// attempt, and a failed attempt is discarded so the next caller retries
// instead of being wedged on a permanently failed connection.
type Pool struct {
	url     string
	maxOpen int

	mu sync.Mutex
	db *sql.DB
}

// NewPool returns an unconnected pool handle.
func NewPool(url string, maxOpen int) *Pool {
	return &Pool{url: url, maxOpen: maxOpen}
}

// Get returns the shared *sql.DB, connecting on first use.
func (p *Pool) Get(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.db, nil
	}
	if p.url == "" {
		return nil, ErrNotConfigured
	}
	db, err := sql.Open("postgres", p.url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxOpen / 2)
	p.db = db
	logger.Info(ctx, "Database pool initialized", "max_open", p.maxOpen)
	return p.db, nil
}

// Close shuts the underlying pool down if it was ever opened.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	reset_token TEXT,
	reset_token_expiry TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	target_date TIMESTAMPTZ,
	items JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_owner_created ON todos (owner_id, created_at DESC);
CREATE TABLE IF NOT EXISTS todo_events (
	id TEXT PRIMARY KEY,
	todo_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	action TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the schema if it does not exist (idempotent).
func (p *Pool) Migrate(ctx context.Context) error {
	db, err := p.Get(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		return err
	}
	return nil
}
