// Package storage persists candidates, records, cached crawls and the
// processed-domain set in a single SQLite database.
package storage

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS candidates (
  id             INTEGER PRIMARY KEY,
  domain         TEXT NOT NULL,
  url            TEXT NOT NULL,
  title          TEXT,
  snippet        TEXT,
  region         TEXT,
  category       TEXT,
  status         TEXT NOT NULL DEFAULT 'pending'
                 CHECK (status IN ('pending','evaluated','error','listed','rejected','skipped')),
  discovered_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  crawled_at     DATETIME,
  classification TEXT,
  contacts       TEXT,
  error          TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_one_active
  ON candidates(domain) WHERE status IN ('pending','evaluated','error');
CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status, discovered_at);
CREATE INDEX IF NOT EXISTS idx_candidates_domain ON candidates(domain);
CREATE TABLE IF NOT EXISTS records (
  id                INTEGER PRIMARY KEY,
  slug              TEXT NOT NULL UNIQUE,
  domain            TEXT NOT NULL UNIQUE,
  name              TEXT NOT NULL,
  website           TEXT,
  city              TEXT,
  state             TEXT,
  region            TEXT,
  phone             TEXT,
  email             TEXT,
  address           TEXT,
  social            TEXT,
  summary           TEXT,
  description       TEXT,
  tags              TEXT,
  rating            REAL NOT NULL DEFAULT 0,
  review_count      INTEGER NOT NULL DEFAULT 0,
  place_id          TEXT,
  latitude          REAL,
  longitude         REAL,
  external_verified INTEGER NOT NULL DEFAULT 0 CHECK (external_verified IN (0,1)),
  needs_review      INTEGER NOT NULL DEFAULT 0 CHECK (needs_review IN (0,1)),
  review_issues     TEXT,
  last_audit_at     DATETIME,
  created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_records_region ON records(region);
CREATE TABLE IF NOT EXISTS crawl_cache (
  domain     TEXT PRIMARY KEY,
  url        TEXT NOT NULL,
  crawled_at DATETIME NOT NULL,
  payload    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS processed_domains (
  domain    TEXT PRIMARY KEY,
  synced_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
