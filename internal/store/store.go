// Package store persists conversations in an embedded SQLite database.
//
// Two collections back the engine: chats and messages. Messages carry the
// branching-tree structure (parent id, sibling order, fractional index);
// the store only guarantees per-record atomicity. Multi-record cascades
// (subtree delete, whole-chat delete) are not atomic: a crash mid-cascade
// can leave orphaned messages, which are inert: no chat references them
// and the tree builder never sees them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// schemaVersion is bumped whenever the on-disk layout changes.
// Stored in PRAGMA user_version so upgrades can be detected on open.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS chats (
    chat_id    TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    msg_id        TEXT PRIMARY KEY,
    chat_id       TEXT NOT NULL,
    parent_msg_id TEXT,
    p_order       INTEGER NOT NULL,
    msg_index     REAL NOT NULL,
    user_msg      TEXT NOT NULL,
    user_image    TEXT NOT NULL DEFAULT '',
    model         TEXT NOT NULL,
    sent_at       DATETIME NOT NULL,
    ai_response   TEXT NOT NULL DEFAULT '',
    responded_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
CREATE INDEX IF NOT EXISTS idx_messages_parent ON messages(chat_id, parent_msg_id);
CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(updated_at);
`

// Store is a handle to the embedded conversation database.
//
// The handle is explicitly constructed and injectable; tests open one
// per test case instead of sharing module state. Safe for concurrent use
// (database/sql pools connections internally).
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and
// bootstraps the schema. Use ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL allows readers during writes; busy_timeout smooths over the
	// occasional lock contention between pooled connections.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("executing %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("stamping schema version: %w", err)
		}
		logger.Debug("schema upgraded", "from", version, "to", schemaVersion)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// nullable adapts an optional identifier to a driver argument:
// nil becomes SQL NULL. The reverse translation happens in scanMessage,
// so callers only ever see *string.
func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
