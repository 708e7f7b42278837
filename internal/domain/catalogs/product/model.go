// Package product provides the Product catalog together with the per-branch
// settings rows created from the product form.
package product

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain"
)

// Product is a sellable item. Stock is the main pool; it changes only
// through the stock ledger.
type Product struct {
	ID             id.ID           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	CategoryID     *id.ID          `db:"category_id" json:"categoryId,omitempty"`
	UnitID         *id.ID          `db:"unit_id" json:"unitId,omitempty"`
	Barcode        *string         `db:"barcode" json:"barcode,omitempty"`
	PurchasePrice  decimal.Decimal `db:"purchase_price" json:"purchasePrice"`
	AlertThreshold int64           `db:"alert_threshold" json:"alertThreshold"`
	Stock          int64           `db:"stock" json:"stock"`
	Status         domain.Status   `db:"status" json:"status"`
	IsMain         bool            `db:"is_main" json:"isMain"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// Validate checks attribute invariants.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if p.Barcode != nil && strings.TrimSpace(*p.Barcode) == "" {
		return apperror.NewFieldValidation("barcode", "barcode must not be blank")
	}
	if types.IsNegative(p.PurchasePrice) {
		return apperror.NewFieldValidation("purchase_price", "purchase price must not be negative")
	}
	if p.AlertThreshold < 0 {
		return apperror.NewFieldValidation("alert_threshold", "alert threshold must not be negative")
	}
	if !p.Status.Valid() {
		return apperror.NewFieldValidation("status", "status must be active or inactive")
	}
	return nil
}

// AuditState returns the audited attributes.
func (p *Product) AuditState() map[string]any {
	state := map[string]any{
		"name":            p.Name,
		"purchase_price":  p.PurchasePrice.String(),
		"alert_threshold": p.AlertThreshold,
		"status":          string(p.Status),
	}
	if p.Barcode != nil {
		state["barcode"] = *p.Barcode
	}
	return state
}

// BranchProduct is the per-branch view of a product.
type BranchProduct struct {
	ProductID      id.ID         `db:"product_id" json:"productId"`
	BranchID       id.ID         `db:"branch_id" json:"branchId"`
	Stock          int64         `db:"stock" json:"stock"`
	AlertThreshold int64         `db:"alert_threshold" json:"alertThreshold"`
	Status         domain.Status `db:"status" json:"status"`
}

// PriceInput is a price for one price type.
type PriceInput struct {
	PriceTypeID id.ID
	Price       types.Money
}

// BranchSettings is what the product form posts per branch.
type BranchSettings struct {
	BranchID       id.ID
	AlertThreshold int64
	Status         domain.Status
	Prices         []PriceInput
}

// Input carries product create/edit fields.
type Input struct {
	Name           string
	CategoryID     *id.ID
	UnitID         *id.ID
	Barcode        *string
	PurchasePrice  types.Money
	AlertThreshold int64
	Status         domain.Status

	// OpeningStock is credited to the main pool on create; ignored on edit.
	OpeningStock int64

	Branches []BranchSettings
}

func (in Input) apply(p *Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.CategoryID = in.CategoryID
	p.UnitID = in.UnitID
	p.Barcode = in.Barcode
	if p.Barcode != nil {
		b := strings.TrimSpace(*p.Barcode)
		p.Barcode = &b
	}
	p.PurchasePrice = in.PurchasePrice
	p.AlertThreshold = in.AlertThreshold
	p.Status = in.Status
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
}
