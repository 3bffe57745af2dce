// Package db manages the SQLite deploy-history ledger: one row per build
// attempt, recording what the scheduler tried and how it ended. Project
// records themselves live as files in the store package; this database only
// answers "what happened last time" questions that the engine cannot.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	// registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// History wraps *sql.DB so only the ledger's own methods are exposed to
// callers. If the storage engine changes, only this package changes.
type History struct {
	conn   *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS build_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    slug        TEXT NOT NULL,
    kind        TEXT NOT NULL,
    commit_sha  TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    started_at  DATETIME NOT NULL,
    finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_build_history_slug ON build_history(slug, id);
`

// Open opens (creating if necessary) the history database and runs the
// schema migration. The schema uses IF NOT EXISTS so this is safe on every
// startup.
func Open(dbPath string, logger *slog.Logger) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %q: %w", dbPath, err)
	}

	// SQLite does not support concurrent writes from multiple connections;
	// a single pooled connection prevents "database is locked" errors.
	conn.SetMaxOpenConns(1)

	history := &History{conn: conn, logger: logger}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history schema migration failed: %w", err)
	}

	logger.Debug("deploy history opened", "path", dbPath)
	return history, nil
}

// Close releases the connection pool. Deferred by the daemon after Open.
func (h *History) Close() error {
	return h.conn.Close()
}
