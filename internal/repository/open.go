// Package repository selects and opens the workspace store configured by
// STORE_DRIVER.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"quix/internal/config"
	"quix/internal/domain/repositories"
	"quix/internal/repository/memory"
	"quix/internal/repository/postgres"
	"quix/internal/repository/sqlite"
)

// Backend is an opened store with its transaction manager
type Backend struct {
	Store     repositories.WorkspaceStore
	TxManager repositories.TransactionManager
	Driver    string

	close func()
	reset func(ctx context.Context) error
}

// Reset drops and recreates the schema, discarding every workspace
func (b *Backend) Reset(ctx context.Context) error {
	if b.reset == nil {
		return fmt.Errorf("reset is not supported by the %s store", b.Driver)
	}
	return b.reset(ctx)
}

// Close releases the connection pool or database handle
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the configured driver. With applySchema set the
// Postgres tables are created when missing; SQLite always bootstraps its
// schema on open.
func Open(ctx context.Context, cfg *config.Config, applySchema bool, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("create connection pool: %w", err)
		}

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if applySchema {
			if err := postgres.ApplySchema(ctx, pool, tables); err != nil {
				pool.Close()
				return nil, fmt.Errorf("apply schema: %w", err)
			}
			logger.Info("schema applied", "table_prefix", cfg.TablePrefix)
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		logger.Info("database connected", "driver", cfg.StoreDriver, "max_conns", cfg.DBMaxConns)
		return &Backend{
			Store:     postgres.NewWorkspaceStore(repoConfig),
			TxManager: postgres.NewTransactionManager(repoConfig),
			Driver:    cfg.StoreDriver,
			close:     pool.Close,
			reset: func(ctx context.Context) error {
				if err := postgres.DropSchema(ctx, pool, tables); err != nil {
					return err
				}
				return postgres.ApplySchema(ctx, pool, tables)
			},
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("database opened", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return &Backend{
			Store:     sqlite.NewWorkspaceStore(db, logger),
			TxManager: sqlite.NewTransactionManager(db, logger),
			Driver:    cfg.StoreDriver,
			close:     func() { db.Close() },
			reset:     func(ctx context.Context) error { return sqlite.Reset(ctx, db) },
		}, nil

	case config.DriverMemory:
		logger.Warn("using the in-memory store; state is lost on exit")
		return &Backend{
			Store:     memory.NewStore(),
			TxManager: memory.NewTransactionManager(),
			Driver:    cfg.StoreDriver,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
