// Package supplier provides the Supplier catalog referenced by purchases.
package supplier

import (
	"context"
	"strings"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
)

// Supplier is a vendor goods are purchased from.
type Supplier struct {
	ID        id.ID         `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Phone     string        `db:"phone" json:"phone"`
	Status    domain.Status `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

// NewSupplier creates an active supplier.
func NewSupplier(name, phone string) *Supplier {
	return &Supplier{
		ID:     id.New(),
		Name:   strings.TrimSpace(name),
		Phone:  strings.TrimSpace(phone),
		Status: domain.StatusActive,
	}
}

// GetID implements domain.Entity.
func (s *Supplier) GetID() id.ID { return s.ID }

// Validate implements domain.Entity.
func (s *Supplier) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if !s.Status.Valid() {
		return apperror.NewFieldValidation("status", "status must be active or inactive")
	}
	return nil
}

// AuditState implements domain.Entity.
func (s *Supplier) AuditState() map[string]any {
	return map[string]any{"name": s.Name, "phone": s.Phone, "status": string(s.Status)}
}

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]
}

// Service provides business logic for the Supplier catalog.
type Service struct {
	*domain.CatalogService[*Supplier]
}

// NewService creates a new Supplier service.
func NewService(repo Repository, txm tx.Manager, rec audit.Recorder) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
			Repo:       repo,
			TxManager:  txm,
			Audit:      rec,
			EntityName: "supplier",
		}),
	}
}
