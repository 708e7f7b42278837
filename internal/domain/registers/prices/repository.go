package prices

import (
	"context"

	"inventra/internal/core/id"
)

// Repository defines storage for price rows.
type Repository interface {
	// Upsert inserts p or updates the price of the existing row with the same key.
	Upsert(ctx context.Context, p *Price) error

	// ListByProductBranch returns every price-type row for the pair.
	ListByProductBranch(ctx context.Context, productID, branchID id.ID) ([]Price, error)
}

// Cache is an optional read-through cache of ListByProductBranch results.
// Every Invalidate bumps the product's version; Set drops rows read under an
// older version, so a slow reader cannot restore prices a writer replaced.
type Cache interface {
	Get(ctx context.Context, productID, branchID id.ID) ([]Price, bool, error)
	Version(ctx context.Context, productID id.ID) (int64, error)
	Set(ctx context.Context, productID, branchID id.ID, version int64, rows []Price) error
	Invalidate(ctx context.Context, productID id.ID, branchIDs ...id.ID) error
}

// Catalogs answers existence questions about referenced records.
// Branch lookups report NOT_FOUND for unknown ids.
type Catalogs interface {
	ProductExists(ctx context.Context, productID id.ID) (bool, error)
	PriceTypeExists(ctx context.Context, priceTypeID id.ID) (bool, error)
	IsMainBranch(ctx context.Context, branchID id.ID) (bool, error)
}
