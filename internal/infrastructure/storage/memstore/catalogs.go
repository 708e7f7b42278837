package memstore

import (
	"context"
	"sort"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/pricetype"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/supplier"
)

var (
	_ branch.Repository    = (*BranchRepo)(nil)
	_ pricetype.Repository = (*PriceTypeRepo)(nil)
	_ supplier.Repository  = (*SupplierRepo)(nil)
	_ product.Repository   = (*ProductRepo)(nil)
)

func referenced() error {
	return apperror.NewConflict("record is referenced by other records")
}

// --- branches ---

// BranchRepo implements branch.Repository.
type BranchRepo struct{ s *Store }

func (r *BranchRepo) Create(ctx context.Context, b *branch.Branch) error {
	return r.s.exec(ctx, func(st *state) error {
		for _, other := range st.branches {
			if other.Name == b.Name {
				return apperror.NewDuplicate("branch", "name", b.Name)
			}
			if b.IsMain && other.IsMain {
				return apperror.NewDuplicate("branch", "is_main", "true")
			}
		}
		now := time.Now().UTC()
		b.CreatedAt, b.UpdatedAt = now, now
		st.branches[b.ID] = *b
		return nil
	})
}

func (r *BranchRepo) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	var out *branch.Branch
	err := r.s.exec(ctx, func(st *state) error {
		b, ok := st.branches[branchID]
		if !ok {
			return apperror.NewNotFound("branch", branchID.String())
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *BranchRepo) GetMain(ctx context.Context) (*branch.Branch, error) {
	var out *branch.Branch
	err := r.s.exec(ctx, func(st *state) error {
		for _, b := range st.branches {
			if b.IsMain {
				b := b
				out = &b
				return nil
			}
		}
		return apperror.NewNotFound("branch", "main")
	})
	return out, err
}

func (r *BranchRepo) Update(ctx context.Context, b *branch.Branch) error {
	return r.s.exec(ctx, func(st *state) error {
		stored, ok := st.branches[b.ID]
		if !ok {
			return apperror.NewNotFound("branch", b.ID.String())
		}
		for _, other := range st.branches {
			if other.ID != b.ID && other.Name == b.Name {
				return apperror.NewDuplicate("branch", "name", b.Name)
			}
		}
		stored.Name = b.Name
		stored.Address = b.Address
		stored.UpdatedAt = time.Now().UTC()
		st.branches[b.ID] = stored
		*b = stored
		return nil
	})
}

func (r *BranchRepo) Delete(ctx context.Context, branchID id.ID) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.branches[branchID]; !ok {
			return apperror.NewNotFound("branch", branchID.String())
		}
		for k := range st.branchProducts {
			if k.branchID == branchID {
				return referenced()
			}
		}
		for k := range st.prices {
			if k.branchID == branchID {
				return referenced()
			}
		}
		for _, lines := range st.transfers {
			if lines[0].DestinationBranchID == branchID || lines[0].SourceBranchID == branchID {
				return referenced()
			}
		}
		delete(st.branches, branchID)
		return nil
	})
}

func (r *BranchRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*branch.Branch], error) {
	var items []*branch.Branch
	_ = r.s.exec(ctx, func(st *state) error {
		for _, b := range st.branches {
			b := b
			items = append(items, &b)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return domain.Page(items, f), nil
}

// --- price types ---

// PriceTypeRepo implements pricetype.Repository.
type PriceTypeRepo struct{ s *Store }

func (r *PriceTypeRepo) Create(ctx context.Context, p *pricetype.PriceType) error {
	return r.s.exec(ctx, func(st *state) error {
		for _, other := range st.priceTypes {
			if other.Name == p.Name {
				return apperror.NewDuplicate("price_type", "name", p.Name)
			}
		}
		p.CreatedAt = time.Now().UTC()
		st.priceTypes[p.ID] = *p
		return nil
	})
}

func (r *PriceTypeRepo) GetByID(ctx context.Context, priceTypeID id.ID) (*pricetype.PriceType, error) {
	var out *pricetype.PriceType
	err := r.s.exec(ctx, func(st *state) error {
		p, ok := st.priceTypes[priceTypeID]
		if !ok {
			return apperror.NewNotFound("price_type", priceTypeID.String())
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *PriceTypeRepo) Update(ctx context.Context, p *pricetype.PriceType) error {
	return r.s.exec(ctx, func(st *state) error {
		stored, ok := st.priceTypes[p.ID]
		if !ok {
			return apperror.NewNotFound("price_type", p.ID.String())
		}
		for _, other := range st.priceTypes {
			if other.ID != p.ID && other.Name == p.Name {
				return apperror.NewDuplicate("price_type", "name", p.Name)
			}
		}
		stored.Name, stored.Description, stored.Status = p.Name, p.Description, p.Status
		st.priceTypes[p.ID] = stored
		return nil
	})
}

func (r *PriceTypeRepo) Delete(ctx context.Context, priceTypeID id.ID) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.priceTypes[priceTypeID]; !ok {
			return apperror.NewNotFound("price_type", priceTypeID.String())
		}
		for k := range st.prices {
			if k.priceTypeID == priceTypeID {
				return referenced()
			}
		}
		delete(st.priceTypes, priceTypeID)
		return nil
	})
}

func (r *PriceTypeRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*pricetype.PriceType], error) {
	var items []*pricetype.PriceType
	_ = r.s.exec(ctx, func(st *state) error {
		for _, p := range st.priceTypes {
			p := p
			items = append(items, &p)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return domain.Page(items, f), nil
}

// --- suppliers ---

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct{ s *Store }

func (r *SupplierRepo) Create(ctx context.Context, sp *supplier.Supplier) error {
	return r.s.exec(ctx, func(st *state) error {
		sp.CreatedAt = time.Now().UTC()
		st.suppliers[sp.ID] = *sp
		return nil
	})
}

func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	var out *supplier.Supplier
	err := r.s.exec(ctx, func(st *state) error {
		sp, ok := st.suppliers[supplierID]
		if !ok {
			return apperror.NewNotFound("supplier", supplierID.String())
		}
		out = &sp
		return nil
	})
	return out, err
}

func (r *SupplierRepo) Update(ctx context.Context, sp *supplier.Supplier) error {
	return r.s.exec(ctx, func(st *state) error {
		stored, ok := st.suppliers[sp.ID]
		if !ok {
			return apperror.NewNotFound("supplier", sp.ID.String())
		}
		stored.Name, stored.Phone, stored.Status = sp.Name, sp.Phone, sp.Status
		st.suppliers[sp.ID] = stored
		return nil
	})
}

func (r *SupplierRepo) Delete(ctx context.Context, supplierID id.ID) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.suppliers[supplierID]; !ok {
			return apperror.NewNotFound("supplier", supplierID.String())
		}
		for _, p := range st.purchases {
			if p.SupplierID == supplierID {
				return referenced()
			}
		}
		delete(st.suppliers, supplierID)
		return nil
	})
}

func (r *SupplierRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	var items []*supplier.Supplier
	_ = r.s.exec(ctx, func(st *state) error {
		for _, sp := range st.suppliers {
			sp := sp
			items = append(items, &sp)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return domain.Page(items, f), nil
}

// --- products ---

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

func checkProductUnique(st *state, p *product.Product) error {
	for _, other := range st.products {
		if other.ID == p.ID {
			continue
		}
		if other.Name == p.Name {
			return apperror.NewDuplicate("product", "name", p.Name)
		}
		if p.Barcode != nil && other.Barcode != nil && *other.Barcode == *p.Barcode {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}
	return nil
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.s.exec(ctx, func(st *state) error {
		if err := checkProductUnique(st, p); err != nil {
			return err
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	var out *product.Product
	err := r.s.exec(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.s.exec(ctx, func(st *state) error {
		stored, ok := st.products[p.ID]
		if !ok {
			return apperror.NewNotFound("product", p.ID.String())
		}
		if err := checkProductUnique(st, p); err != nil {
			return err
		}
		stock := stored.Stock
		stored = *p
		stored.Stock = stock
		st.products[p.ID] = stored
		p.Stock = stock
		return nil
	})
}

func (r *ProductRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	var items []*product.Product
	_ = r.s.exec(ctx, func(st *state) error {
		for _, p := range st.products {
			p := p
			items = append(items, &p)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return domain.Page(items, f), nil
}

func (r *ProductRepo) UpsertBranchSettings(ctx context.Context, bp *product.BranchProduct) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.products[bp.ProductID]; !ok {
			return referenced()
		}
		if _, ok := st.branches[bp.BranchID]; !ok {
			return referenced()
		}
		key := bpKey{bp.ProductID, bp.BranchID}
		stored, ok := st.branchProducts[key]
		if !ok {
			stored = product.BranchProduct{ProductID: bp.ProductID, BranchID: bp.BranchID}
		}
		stored.AlertThreshold = bp.AlertThreshold
		stored.Status = bp.Status
		st.branchProducts[key] = stored
		bp.Stock = stored.Stock
		return nil
	})
}

func (r *ProductRepo) ListBranchProducts(ctx context.Context, productID id.ID) ([]product.BranchProduct, error) {
	var out []product.BranchProduct
	_ = r.s.exec(ctx, func(st *state) error {
		for k, bp := range st.branchProducts {
			if k.productID == productID {
				out = append(out, bp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BranchID.String() < out[j].BranchID.String() })
	return out, nil
}
