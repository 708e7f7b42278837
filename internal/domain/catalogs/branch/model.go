// Package branch provides the Branch catalog: store locations, one of which
// is the main branch holding the products' main stock pool.
package branch

import (
	"context"
	"strings"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
)

// Branch is a store location.
type Branch struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	IsMain    bool      `db:"is_main" json:"isMain"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBranch creates a regular (non-main) branch.
func NewBranch(name, address string) *Branch {
	return &Branch{
		ID:      id.New(),
		Name:    strings.TrimSpace(name),
		Address: strings.TrimSpace(address),
	}
}

// GetID implements domain.Entity.
func (b *Branch) GetID() id.ID { return b.ID }

// Validate implements domain.Entity.
func (b *Branch) Validate(ctx context.Context) error {
	if strings.TrimSpace(b.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if len(b.Name) > 255 {
		return apperror.NewFieldValidation("name", "name must be at most 255 characters")
	}
	return nil
}

// AuditState implements domain.Entity.
func (b *Branch) AuditState() map[string]any {
	return map[string]any{
		"name":    b.Name,
		"address": b.Address,
		"is_main": b.IsMain,
	}
}
