package stock

import (
	"context"

	"inventra/internal/core/id"
)

// Repository defines storage operations for the stock ledger.
// Methods suffixed ForUpdate lock the row until the surrounding transaction ends.
type Repository interface {
	// GetProductStock returns main stock; NOT_FOUND when the product is missing.
	GetProductStock(ctx context.Context, productID id.ID) (int64, error)

	// GetProductStockForUpdate is GetProductStock with a row lock.
	GetProductStockForUpdate(ctx context.Context, productID id.ID) (int64, error)

	// SetProductStock overwrites main stock.
	SetProductStock(ctx context.Context, productID id.ID, qty int64) error

	// GetBranchStock returns branch stock; a missing row reads as 0.
	GetBranchStock(ctx context.Context, productID, branchID id.ID) (int64, error)

	// GetBranchStockForUpdate locks the branch row. found is false when no row exists.
	GetBranchStockForUpdate(ctx context.Context, productID, branchID id.ID) (qty int64, found bool, err error)

	// EnsureBranchProduct creates the branch row at zero stock when absent.
	EnsureBranchProduct(ctx context.Context, productID, branchID id.ID) error

	// SetBranchStock overwrites branch stock.
	SetBranchStock(ctx context.Context, productID, branchID id.ID, qty int64) error

	// CreateMovements appends journal rows.
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetMovementsByRecorder lists journal rows of one document in insertion order.
	GetMovementsByRecorder(ctx context.Context, rec Recorder) ([]Movement, error)
}

// Branches resolves branch ids for stock reads.
type Branches interface {
	// IsMainBranch reports whether branchID is the main branch; NOT_FOUND when
	// no such branch exists.
	IsMainBranch(ctx context.Context, branchID id.ID) (bool, error)
}
