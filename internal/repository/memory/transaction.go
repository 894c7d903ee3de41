package memory

import (
	"context"

	"redline/internal/domain/repositories"
)

// TransactionManager is a no-op transaction manager for the in-memory
// repositories: the function runs directly against the stores. Rollback
// semantics are not simulated.
type TransactionManager struct{}

// NewTransactionManager creates a no-op transaction manager.
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

// ExecTx runs fn without transactional isolation.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
