// Package sqlite is the embedded WorkspaceStore on mattn/go-sqlite3. It
// mirrors the postgres store: the transaction lives in the context and every
// query runs on it when present.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the database file at path and applies the
// schema. A single connection serializes writers; WAL keeps readers cheap.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

// Reset drops every workspace table and recreates the empty schema
func Reset(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"journal", "notes", "file_nodes", "notebooks"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// SQLite unique constraints cannot be deferred, so (notebook_id, rank) is a
// plain index here and rank density is left to the event bus.
const schema = `
	CREATE TABLE IF NOT EXISTS notebooks (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		owner        TEXT NOT NULL,
		is_liked     BOOLEAN NOT NULL DEFAULT 0,
		date_created TIMESTAMP NOT NULL,
		date_updated TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notebooks_owner ON notebooks(owner);

	CREATE TABLE IF NOT EXISTS notes (
		id           TEXT PRIMARY KEY,
		notebook_id  TEXT NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		type         TEXT NOT NULL,
		content      TEXT NOT NULL DEFAULT '',
		owner        TEXT NOT NULL,
		rank         INTEGER NOT NULL,
		date_created TIMESTAMP NOT NULL,
		date_updated TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notes_notebook_rank ON notes(notebook_id, rank);

	CREATE TABLE IF NOT EXISTS file_nodes (
		id           TEXT PRIMARY KEY,
		owner        TEXT NOT NULL,
		parent_id    TEXT,
		type         TEXT NOT NULL,
		name         TEXT NOT NULL,
		mpath        TEXT NOT NULL,
		date_created TIMESTAMP NOT NULL,
		date_updated TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_file_nodes_mpath ON file_nodes(owner, mpath);
	CREATE INDEX IF NOT EXISTS idx_file_nodes_parent ON file_nodes(owner, parent_id);

	CREATE TABLE IF NOT EXISTS journal (
		id         TEXT PRIMARY KEY,
		batch_id   TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		actor_id   TEXT NOT NULL,
		type       TEXT NOT NULL,
		target_id  TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (batch_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_journal_actor ON journal(actor_id, id);
`
