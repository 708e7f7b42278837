package dto

import (
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
)

// --- Branches ---

// BranchRequest creates or renames a branch.
type BranchRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Address string `json:"address,omitempty" binding:"max=1000"`
}

// ToEntity builds a new regular branch.
func (r *BranchRequest) ToEntity() *branch.Branch {
	return branch.NewBranch(r.Name, r.Address)
}

// --- Price types ---

// PriceTypeRequest creates a price type.
type PriceTypeRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description,omitempty"`
}

// ToEntity builds an active price type.
func (r *PriceTypeRequest) ToEntity() *pricetype.PriceType {
	return pricetype.NewPriceType(r.Name, r.Description)
}

// --- Suppliers ---

// SupplierRequest creates a supplier.
type SupplierRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Phone string `json:"phone,omitempty" binding:"max=64"`
}

// ToEntity builds an active supplier.
func (r *SupplierRequest) ToEntity() *supplier.Supplier {
	return supplier.NewSupplier(r.Name, r.Phone)
}

// --- Products ---

// ProductRequest is the product create/edit form.
type ProductRequest struct {
	Name           string                  `json:"name" binding:"required,max=255"`
	CategoryID     *string                 `json:"categoryId,omitempty"`
	UnitID         *string                 `json:"unitId,omitempty"`
	Barcode        *string                 `json:"barcode,omitempty" binding:"omitempty,max=64"`
	PurchasePrice  types.Money             `json:"purchasePrice"`
	AlertThreshold int64                   `json:"alertThreshold"`
	Status         string                  `json:"status,omitempty"`
	OpeningStock   int64                   `json:"openingStock"`
	Branches       []BranchSettingsRequest `json:"branches,omitempty" binding:"dive"`
}

// BranchSettingsRequest is the per-branch block of the product form.
type BranchSettingsRequest struct {
	BranchID       string              `json:"branchId" binding:"required"`
	AlertThreshold int64               `json:"alertThreshold"`
	Status         string              `json:"status,omitempty"`
	Prices         []PriceInputRequest `json:"prices,omitempty" binding:"dive"`
}

// PriceInputRequest is a price for one price type.
type PriceInputRequest struct {
	PriceTypeID string      `json:"priceTypeId" binding:"required"`
	Price       types.Money `json:"price"`
}

// ToInput converts the form.
func (r *ProductRequest) ToInput() (product.Input, error) {
	in := product.Input{
		Name:           r.Name,
		Barcode:        r.Barcode,
		PurchasePrice:  r.PurchasePrice,
		AlertThreshold: r.AlertThreshold,
		Status:         domain.Status(r.Status),
		OpeningStock:   r.OpeningStock,
	}
	var err error
	if in.CategoryID, err = ParseOptionalID("category_id", r.CategoryID); err != nil {
		return in, err
	}
	if in.UnitID, err = ParseOptionalID("unit_id", r.UnitID); err != nil {
		return in, err
	}

	for i, b := range r.Branches {
		branchID, err := id.ParseField(indexed("branches", i, "branch_id"), b.BranchID)
		if err != nil {
			return in, err
		}
		settings := product.BranchSettings{
			BranchID:       branchID,
			AlertThreshold: b.AlertThreshold,
			Status:         domain.Status(b.Status),
		}
		for j, p := range b.Prices {
			priceTypeID, err := id.ParseField(indexed("branches", i, indexed("prices", j, "price_type_id")), p.PriceTypeID)
			if err != nil {
				return in, err
			}
			settings.Prices = append(settings.Prices, product.PriceInput{PriceTypeID: priceTypeID, Price: p.Price})
		}
		in.Branches = append(in.Branches, settings)
	}
	return in, nil
}

// UpsertPriceRequest sets one price of the matrix.
type UpsertPriceRequest struct {
	BranchID    string      `json:"branchId" binding:"required"`
	PriceTypeID string      `json:"priceTypeId" binding:"required"`
	Price       types.Money `json:"price"`
}

// StockResponse reports one pool of a product.
type StockResponse struct {
	ProductID string  `json:"productId"`
	BranchID  *string `json:"branchId,omitempty"`
	Stock     int64   `json:"stock"`
}

// ProductResponse is a product with its branch rows.
type ProductResponse struct {
	*product.Product
	Branches []product.BranchProduct `json:"branches"`
}
