package repositories

import "context"

// TxFn folds one batch. Store calls made with the ctx it receives join the
// batch transaction.
type TxFn func(ctx context.Context) error

// TransactionManager gives each batch its all-or-nothing scope. ExecTx
// commits only when fn returns nil; any error discards every SaveBatch made
// through the derived ctx and is returned as is, so an *ActionError keeps
// its type. The event bus holds the actor's scope lock across ExecTx, so an
// actor never has two batch transactions open at once.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
