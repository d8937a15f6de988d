package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema returns the DDL for the workspace tables. Statements are idempotent.
//
// file_nodes carries a text_pattern_ops index on (owner, mpath) so the
// descendant query is a range scan on the prefix. The (notebook_id, rank)
// constraint is deferred to commit because a batch rewrites many ranks.
func Schema(tables *TableNames) []string {
	p := tables.Prefix
	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           TEXT PRIMARY KEY,
				name         VARCHAR(255) NOT NULL,
				owner        TEXT NOT NULL,
				is_liked     BOOLEAN NOT NULL DEFAULT FALSE,
				date_created TIMESTAMPTZ NOT NULL,
				date_updated TIMESTAMPTZ NOT NULL
			)`, tables.Notebooks),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %snotebooks_owner_idx ON %s (owner)`, p, tables.Notebooks),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           TEXT PRIMARY KEY,
				notebook_id  TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				name         VARCHAR(255) NOT NULL,
				type         VARCHAR(64) NOT NULL,
				content      TEXT NOT NULL DEFAULT '',
				owner        TEXT NOT NULL,
				rank         INTEGER NOT NULL CHECK (rank >= 0),
				date_created TIMESTAMPTZ NOT NULL,
				date_updated TIMESTAMPTZ NOT NULL,
				CONSTRAINT %snotes_rank_key UNIQUE (notebook_id, rank) DEFERRABLE INITIALLY DEFERRED
			)`, tables.Notes, tables.Notebooks, p),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id           TEXT PRIMARY KEY,
				owner        TEXT NOT NULL,
				parent_id    TEXT,
				type         VARCHAR(32) NOT NULL,
				name         VARCHAR(255) NOT NULL,
				mpath        TEXT NOT NULL,
				date_created TIMESTAMPTZ NOT NULL,
				date_updated TIMESTAMPTZ NOT NULL
			)`, tables.FileNodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %sfile_nodes_mpath_idx ON %s (owner, mpath text_pattern_ops)`, p, tables.FileNodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %sfile_nodes_parent_idx ON %s (owner, parent_id)`, p, tables.FileNodes),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				batch_id   TEXT NOT NULL,
				seq        INTEGER NOT NULL,
				actor_id   TEXT NOT NULL,
				type       TEXT NOT NULL,
				target_id  TEXT NOT NULL,
				payload    JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				UNIQUE (batch_id, seq)
			)`, tables.Journal),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %sjournal_actor_idx ON %s (actor_id, id)`, p, tables.Journal),
	}
}

// ApplySchema creates the workspace tables if they do not exist
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, stmt := range Schema(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops the workspace tables of one prefix. Dependents go first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Journal, tables.Notes, tables.FileNodes, tables.Notebooks} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
