// Package catalog provides SQLite-backed storage for named, ranked items.
//
// A catalog is the persistent source behind the CLI's sorted views: rows
// carry a label and an integer rank, and List returns them in insertion
// order so a projection over them reproduces the same source sequence on
// every run.
//
// Entry IDs are UUIDv7 strings. The version-7 layout embeds a millisecond
// timestamp with a monotonic tiebreak, so ordering by (created_at, id)
// recovers insertion order even when wall-clock timestamps collide.
//
// Connections run in WAL mode at synchronous=NORMAL, so readers never
// block on a write and fsync happens at checkpoints rather than per
// commit. Lock contention waits up to five seconds before surfacing as
// SQLITE_BUSY, and foreign keys are enforced.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// user_version stamp; 1 is the initial schema.
const currentSchemaVersion = 1

// Entry is a single catalog row.
type Entry struct {
	ID        string // UUIDv7, hyphenated
	Label     string
	Rank      int64
	CreatedAt int64 // Unix milliseconds
}

// Catalog stores ranked items durably in SQLite. WAL journaling keeps
// readers unblocked while a write is in flight.
type Catalog struct {
	db *sql.DB
}

// Open opens the database at path, creating it if absent, and brings it
// up to date: pragmas first, then the embedded schema. Calling it on an
// already-initialized file is harmless.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sql.Open is lazy; force the file open now so errors surface here.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection total: SQLite allows a single writer, and funneling
	// reads through the same connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle. Safe on a nil-db
// Catalog.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Insert adds a new entry with a freshly generated UUIDv7 ID and returns it.
func (c *Catalog) Insert(ctx context.Context, label string, rank int64) (Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, fmt.Errorf("generate entry id: %w", err)
	}

	e := Entry{
		ID:        id.String(),
		Label:     label,
		Rank:      rank,
		CreatedAt: time.Now().UnixMilli(),
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO entries (id, label, rank, created_at)
		VALUES (?, ?, ?, ?)
	`, e.ID, e.Label, e.Rank, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}

	return e, nil
}

// Remove deletes the entry with the given ID.
// Returns true if a row was deleted, false if no such entry exists.
func (c *Catalog) Remove(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}
	return n > 0, nil
}

// List returns all entries in insertion order.
//
// Ordering is ORDER BY created_at ASC, id COLLATE BINARY ASC. UUIDv7 IDs
// are monotonic within a millisecond, so ties on created_at still resolve
// to true insertion order.
//
// Returns an empty slice (not nil) if the catalog is empty.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, label, rank, created_at
		FROM entries
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Label, &e.Rank, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Clear deletes all entries.
func (c *Catalog) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

// Count returns the number of entries in the catalog.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// applyPragmas puts the connection into the mode the catalog assumes.
// Every Open goes through here; the settings are not optional.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema runs the embedded DDL and stamps user_version. Databases
// written by a newer schema version are refused rather than migrated
// down.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma reads a pragma back and compares it to the value
// applyPragmas should have set. Tests use it to confirm the connection
// mode.
func (c *Catalog) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := c.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
