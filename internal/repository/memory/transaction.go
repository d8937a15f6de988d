package memory

import (
	"context"

	"quix/internal/domain/repositories"
)

// TransactionManager runs fn directly. A batch writes only through
// SaveBatch, which is atomic on its own, so a failed fn leaves nothing behind.
type TransactionManager struct{}

// NewTransactionManager creates a transaction manager for the memory store
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
