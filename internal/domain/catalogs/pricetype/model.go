// Package pricetype provides the PriceType catalog: named pricing tiers
// such as retail or wholesale.
package pricetype

import (
	"context"
	"strings"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// PriceType is a named price tier applied per branch.
type PriceType struct {
	ID          id.ID         `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      domain.Status `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// NewPriceType creates an active price type.
func NewPriceType(name, description string) *PriceType {
	return &PriceType{
		ID:          id.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      domain.StatusActive,
	}
}

// GetID implements domain.Entity.
func (p *PriceType) GetID() id.ID { return p.ID }

// Validate implements domain.Entity.
func (p *PriceType) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if !p.Status.Valid() {
		return apperror.NewFieldValidation("status", "status must be active or inactive")
	}
	return nil
}

// AuditState implements domain.Entity.
func (p *PriceType) AuditState() map[string]any {
	return map[string]any{"name": p.Name, "description": p.Description, "status": string(p.Status)}
}
