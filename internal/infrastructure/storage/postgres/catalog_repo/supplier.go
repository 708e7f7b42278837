package catalog_repo

import (
	"context"

	"inventra/internal/domain/catalogs/supplier"
	"inventra/internal/infrastructure/storage/postgres"
)

const supplierTable = "suppliers"

var _ supplier.Repository = (*SupplierRepo)(nil)

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, supplierTable, "supplier",
			func() *supplier.Supplier { return &supplier.Supplier{} }),
	}
}

func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	return r.UpdateColumns(ctx, s.ID, s, map[string]any{
		"name":   s.Name,
		"phone":  s.Phone,
		"status": s.Status,
	})
}
