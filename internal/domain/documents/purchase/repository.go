package purchase

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines the interface for purchase persistence.
type Repository interface {
	// Insert stores p. A taken receipt number is DUPLICATE_ENTRY.
	Insert(ctx context.Context, p *Purchase) error

	GetByReceipt(ctx context.Context, receipt string) (*Purchase, error)

	// GetByReceiptForUpdate locks the purchase row.
	GetByReceiptForUpdate(ctx context.Context, receipt string) (*Purchase, error)

	UpdateStatus(ctx context.Context, receipt string, status Status, updatedAt time.Time) error

	Delete(ctx context.Context, receipt string) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error)

	// EnsureExpiry stores rec unless (product, expiry date) is already recorded.
	EnsureExpiry(ctx context.Context, rec ExpiryRecord) (created bool, err error)
}

// Catalogs answers existence questions about referenced records.
type Catalogs interface {
	SupplierExists(ctx context.Context, supplierID id.ID) (bool, error)
	ProductExists(ctx context.Context, productID id.ID) (bool, error)
}
