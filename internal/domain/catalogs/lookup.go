// Package catalogs answers the reference checks documents and registers make
// against catalog records.
package catalogs

import (
	"context"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/domain/documents/purchase"
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/domain/registers/stock"
)

// Lookup implements the catalog ports of the documents and registers.
type Lookup struct {
	products   product.Repository
	branches   *branch.Service
	priceTypes *pricetype.Service
	suppliers  *supplier.Service
}

var (
	_ prices.Catalogs   = (*Lookup)(nil)
	_ purchase.Catalogs = (*Lookup)(nil)
	_ transfer.Catalogs = (*Lookup)(nil)
	_ stock.Branches    = (*Lookup)(nil)
)

// NewLookup creates a Lookup.
func NewLookup(
	products product.Repository,
	branches *branch.Service,
	priceTypes *pricetype.Service,
	suppliers *supplier.Service,
) *Lookup {
	return &Lookup{products: products, branches: branches, priceTypes: priceTypes, suppliers: suppliers}
}

// ProductExists reports whether the product is stored.
func (l *Lookup) ProductExists(ctx context.Context, productID id.ID) (bool, error) {
	_, err := l.products.GetByID(ctx, productID)
	if err == nil {
		return true, nil
	}
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// PriceTypeExists reports whether the price type is stored.
func (l *Lookup) PriceTypeExists(ctx context.Context, priceTypeID id.ID) (bool, error) {
	return l.priceTypes.Exists(ctx, priceTypeID)
}

// SupplierExists reports whether the supplier is stored.
func (l *Lookup) SupplierExists(ctx context.Context, supplierID id.ID) (bool, error) {
	return l.suppliers.Exists(ctx, supplierID)
}

// IsMainBranch reports whether branchID is the main branch.
func (l *Lookup) IsMainBranch(ctx context.Context, branchID id.ID) (bool, error) {
	return l.branches.IsMain(ctx, branchID)
}

// MainBranchID returns the id of the main branch.
func (l *Lookup) MainBranchID(ctx context.Context) (id.ID, error) {
	b, err := l.branches.GetMain(ctx)
	if err != nil {
		return id.ID{}, err
	}
	return b.ID, nil
}
