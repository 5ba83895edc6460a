// Package saves persists play sessions in a local SQLite database. Each
// session is one row keyed by its id, with the ship's log snapshot stored
// as a JSON payload so the schema never has to chase the log's shape.
package saves

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/supernova/internal/logbook"
)

// ErrNotFound is returned when no session row exists for the requested id.
var ErrNotFound = errors.New("session not found")

// ErrCorrupt is returned when a session row exists but its payload cannot
// be decoded. Callers are expected to fall back to a fresh session.
var ErrCorrupt = errors.New("session payload corrupt")

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    world      TEXT NOT NULL DEFAULT '',
    payload    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Record is one persisted session.
type Record struct {
	ID        string
	World     string
	Snapshot  logbook.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store implements session persistence using a local SQLite database in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath, enables WAL mode and
// busy timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("saves: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer; using
	// one connection avoids SQLITE_BUSY contention between pooled connections
	// that each need their own PRAGMA setup. WAL mode still benefits external
	// readers and provides crash-safe writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("saves: enable WAL mode: %w", err)
	}

	// Busy timeout avoids SQLITE_BUSY under concurrent access from external processes.
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("saves: set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("saves: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Put upserts a session row, replacing any previous snapshot for the same id.
func (s *Store) Put(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("saves: encode session %q: %w", rec.ID, err)
	}

	const q = `
		INSERT INTO sessions (id, world, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			world      = excluded.world,
			payload    = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, q, rec.ID, rec.World, string(payload)); err != nil {
		return fmt.Errorf("saves: put session %q: %w", rec.ID, err)
	}
	return nil
}

// Get returns the session with the given id. It returns ErrNotFound if no
// row exists, and ErrCorrupt if the row exists but its payload cannot be
// decoded.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	const q = `SELECT id, world, payload, created_at, updated_at FROM sessions WHERE id = ?`

	var rec Record
	var payload, created, updated string
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &rec.World, &payload, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("saves: get session %q: %w", id, err)
	}

	if rec.CreatedAt, err = parseTimestamp(created); err != nil {
		return Record{}, fmt.Errorf("saves: parse created_at for %q: %w", id, err)
	}
	if rec.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return Record{}, fmt.Errorf("saves: parse updated_at for %q: %w", id, err)
	}

	if err := json.Unmarshal([]byte(payload), &rec.Snapshot); err != nil {
		return Record{}, fmt.Errorf("%w: %q: %v", ErrCorrupt, id, err)
	}
	return rec, nil
}

// List returns all sessions ordered most recently updated first. Rows whose
// payload cannot be decoded are skipped; they remain retrievable through Get,
// which reports them as corrupt.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	const q = `SELECT id, world, payload, created_at, updated_at FROM sessions ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("saves: list sessions: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		var payload, created, updated string
		if err := rows.Scan(&rec.ID, &rec.World, &payload, &created, &updated); err != nil {
			return nil, fmt.Errorf("saves: scan session: %w", err)
		}
		if rec.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, fmt.Errorf("saves: parse created_at: %w", err)
		}
		if rec.UpdatedAt, err = parseTimestamp(updated); err != nil {
			return nil, fmt.Errorf("saves: parse updated_at: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Snapshot); err != nil {
			continue
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("saves: iterate sessions: %w", err)
	}
	return result, nil
}

// Delete removes the session with the given id. Deleting a missing id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("saves: delete session %q: %w", id, err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sanitize filters a restored snapshot against the current world: discovered
// ids the world no longer knows are dropped (the content may have changed
// since the session was saved). It returns the cleaned snapshot and the list
// of dropped ids so the caller can warn about each.
func Sanitize(snap logbook.Snapshot, known func(id string) bool) (logbook.Snapshot, []string) {
	var dropped []string
	kept := snap.Discovered[:0:0]
	for _, id := range snap.Discovered {
		if known(id) {
			kept = append(kept, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	snap.Discovered = kept
	return snap, dropped
}

// timestampFormats lists the formats SQLite drivers may produce for
// CURRENT_TIMESTAMP. modernc.org/sqlite typically returns RFC 3339
// (with "T" separator and "Z" suffix), while canonical SQLite returns
// the space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a SQLite timestamp string using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
