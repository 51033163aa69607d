// Package sqlite provides the embedded storage backend. It keeps the same
// method surface as the PostgreSQL backend so deployments without a database
// server can run from a single file.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database, used by tests.
const MemoryPath = ":memory:"

// schema is applied on every open; CREATE IF NOT EXISTS makes it idempotent.
// Timestamp columns are declared TIMESTAMP so the driver scans them back into
// time.Time; session source lists are stored as JSON text.
const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id          TEXT PRIMARY KEY,
    platform_id TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    adapter     TEXT NOT NULL,
    endpoint    TEXT NOT NULL,
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS headlines (
    id            TEXT PRIMARY KEY,
    source_id     TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title         TEXT NOT NULL,
    url           TEXT NOT NULL DEFAULT '',
    mobile_url    TEXT NOT NULL DEFAULT '',
    first_seen_at TIMESTAMP NOT NULL,
    last_seen_at  TIMESTAMP NOT NULL,
    UNIQUE (source_id, title)
);

CREATE TABLE IF NOT EXISTS occurrences (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    headline_id TEXT NOT NULL REFERENCES headlines(id) ON DELETE CASCADE,
    rank        INTEGER NOT NULL,
    observed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS word_groups (
    id                TEXT PRIMARY KEY,
    group_key         TEXT NOT NULL UNIQUE,
    max_display_count INTEGER NOT NULL DEFAULT 0,
    position          INTEGER NOT NULL DEFAULT 0,
    is_active         INTEGER NOT NULL DEFAULT 1,
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS group_words (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id TEXT NOT NULL REFERENCES word_groups(id) ON DELETE CASCADE,
    word     TEXT NOT NULL,
    kind     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS crawl_sessions (
    id             TEXT PRIMARY KEY,
    status         TEXT NOT NULL,
    started_at     TIMESTAMP NOT NULL,
    completed_at   TIMESTAMP,
    sources_ok     TEXT NOT NULL DEFAULT '[]',
    sources_failed TEXT NOT NULL DEFAULT '[]',
    headline_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS push_records (
    id             TEXT PRIMARY KEY,
    channel        TEXT NOT NULL,
    mode           TEXT NOT NULL,
    signature      TEXT NOT NULL DEFAULT '',
    headline_count INTEGER NOT NULL DEFAULT 0,
    status         TEXT NOT NULL,
    error_detail   TEXT NOT NULL DEFAULT '',
    pushed_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_stats (
    stat_date      TIMESTAMP NOT NULL,
    source_id      TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    headline_count INTEGER NOT NULL DEFAULT 0,
    unique_count   INTEGER NOT NULL DEFAULT 0,
    avg_rank       REAL NOT NULL DEFAULT 0,
    UNIQUE (stat_date, source_id)
);

CREATE INDEX IF NOT EXISTS idx_headlines_source_first ON headlines(source_id, first_seen_at);
CREATE INDEX IF NOT EXISTS idx_headlines_last_seen    ON headlines(last_seen_at);
CREATE INDEX IF NOT EXISTS idx_occurrences_headline   ON occurrences(headline_id, observed_at);
CREATE INDEX IF NOT EXISTS idx_occurrences_observed   ON occurrences(observed_at);
CREATE INDEX IF NOT EXISTS idx_sessions_started       ON crawl_sessions(started_at);
CREATE INDEX IF NOT EXISTS idx_pushes_pushed          ON push_records(status, pushed_at);
`

// pragmas are applied via Exec so they work regardless of DSN parameter
// support. busy_timeout covers writer contention under WAL.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Open opens (or creates) the database at path, applies the pragmas and
// bootstraps the schema. Parent directories are created as needed.
func Open(path string) (*sqlx.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Each connection to :memory: is a separate database, so pin the pool
	// before anything executes.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return db, nil
}
