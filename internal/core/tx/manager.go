// Package tx provides transaction management abstractions.
// Domain services depend on this interface, not on a concrete database.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// The transaction travels in the context, so repositories called from fn join it.
//
// The actual implementations live in infrastructure/storage/postgres and
// infrastructure/storage/memstore.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInSavepoint executes fn under a savepoint of the transaction in ctx.
	// A failing fn rolls back only its own writes and leaves the outer
	// transaction usable. Without a transaction in ctx it behaves like
	// RunInTransaction.
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}
