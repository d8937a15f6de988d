package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// executor is what a store query runs on: the pool for reads outside a
// batch, or the batch transaction opened by ExecTx
type executor interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type batchTxKey struct{}

func withBatchTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, batchTxKey{}, tx)
}

// executorFor returns the batch transaction carried by ctx, else the pool.
// A SaveBatch reached without ExecTx therefore runs each statement on its
// own, which is why the event bus always goes through ExecTx.
func executorFor(ctx context.Context, pool *pgxpool.Pool) executor {
	if tx, ok := ctx.Value(batchTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}
