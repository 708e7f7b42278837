package catalog_repo

import (
	"context"

	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/infrastructure/storage/postgres"
)

const priceTypeTable = "price_types"

var _ pricetype.Repository = (*PriceTypeRepo)(nil)

// PriceTypeRepo implements pricetype.Repository.
type PriceTypeRepo struct {
	*BaseCatalogRepo[*pricetype.PriceType]
}

// NewPriceTypeRepo creates a new price type repository.
func NewPriceTypeRepo(txm *postgres.TxManager) *PriceTypeRepo {
	return &PriceTypeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, priceTypeTable, "price_type",
			func() *pricetype.PriceType { return &pricetype.PriceType{} }),
	}
}

func (r *PriceTypeRepo) Update(ctx context.Context, p *pricetype.PriceType) error {
	return r.UpdateColumns(ctx, p.ID, p, map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"status":      p.Status,
	})
}
