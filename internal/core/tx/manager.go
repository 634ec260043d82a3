// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces instead of a concrete
// database implementation.
package tx

import "context"

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT and ROLLBACK; the concrete
// implementation lives in infrastructure/storage/postgres.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back;
	// otherwise it is committed. Nested calls reuse the existing
	// transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for queries that don't modify data.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
