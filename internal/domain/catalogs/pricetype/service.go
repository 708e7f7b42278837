package pricetype

import (
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
)

// Repository defines the interface for PriceType persistence.
// Delete of a price type still referenced by a price row fails with CONFLICT.
type Repository interface {
	domain.CatalogRepository[*PriceType]
}

// Service provides business logic for the PriceType catalog.
type Service struct {
	*domain.CatalogService[*PriceType]
}

// NewService creates a new PriceType service.
func NewService(repo Repository, txm tx.Manager, rec audit.Recorder) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*PriceType]{
			Repo:       repo,
			TxManager:  txm,
			Audit:      rec,
			EntityName: "price_type",
		}),
	}
}
