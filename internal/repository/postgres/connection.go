package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix    string
	Notebooks string
	Notes     string
	FileNodes string
	Journal   string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:    prefix,
		Notebooks: fmt.Sprintf("%snotebooks", prefix),
		Notes:     fmt.Sprintf("%snotes", prefix),
		FileNodes: fmt.Sprintf("%sfile_nodes", prefix),
		Journal:   fmt.Sprintf("%sjournal", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool and pings it.
//
// Port 6543 is treated as a transaction pooler and switched to describe caching.
// An explicit ?default_query_exec_mode=... in the URL always wins.
//
// Table prefixes (dev_, test_, prod_) are interpolated into the SQL text before it
// reaches the server, so each environment gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 25
	}
	config.MaxConns = maxConns
	config.MinConns = min(5, maxConns)

	// Extended protocol keeps the journal payload JSONB typed; describe caching avoids
	// server-side prepared statements the pooler cannot track.
	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
