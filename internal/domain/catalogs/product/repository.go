package product

import (
	"context"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	// Create inserts p; name and barcode clashes are DUPLICATE_ENTRY.
	Create(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, id id.ID) (*Product, error)

	// Update writes attributes. Stock is not touched.
	Update(ctx context.Context, p *Product) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// UpsertBranchSettings creates the branch row at zero stock or updates
	// threshold and status of the existing one.
	UpsertBranchSettings(ctx context.Context, bp *BranchProduct) error

	ListBranchProducts(ctx context.Context, productID id.ID) ([]BranchProduct, error)
}
