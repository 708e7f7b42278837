package memstore

import (
	"context"
	"sort"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/domain/registers/stock"
)

var (
	_ stock.Repository  = (*StockRepo)(nil)
	_ prices.Repository = (*PriceRepo)(nil)
)

// StockRepo implements stock.Repository. Row locks are implicit: the
// transaction already owns the whole store.
type StockRepo struct{ s *Store }

func (r *StockRepo) GetProductStock(ctx context.Context, productID id.ID) (int64, error) {
	var qty int64
	err := r.s.exec(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		qty = p.Stock
		return nil
	})
	return qty, err
}

func (r *StockRepo) GetProductStockForUpdate(ctx context.Context, productID id.ID) (int64, error) {
	return r.GetProductStock(ctx, productID)
}

func (r *StockRepo) SetProductStock(ctx context.Context, productID id.ID, qty int64) error {
	return r.s.exec(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		if qty < 0 {
			return apperror.NewInsufficientStock("main", productID.String(), p.Stock-qty, p.Stock)
		}
		p.Stock = qty
		st.products[productID] = p
		return nil
	})
}

func (r *StockRepo) GetBranchStock(ctx context.Context, productID, branchID id.ID) (int64, error) {
	qty, _, err := r.GetBranchStockForUpdate(ctx, productID, branchID)
	return qty, err
}

func (r *StockRepo) GetBranchStockForUpdate(ctx context.Context, productID, branchID id.ID) (int64, bool, error) {
	var (
		qty   int64
		found bool
	)
	err := r.s.exec(ctx, func(st *state) error {
		bp, ok := st.branchProducts[bpKey{productID, branchID}]
		qty, found = bp.Stock, ok
		return nil
	})
	return qty, found, err
}

func (r *StockRepo) EnsureBranchProduct(ctx context.Context, productID, branchID id.ID) error {
	return r.s.exec(ctx, func(st *state) error {
		key := bpKey{productID, branchID}
		if _, ok := st.branchProducts[key]; ok {
			return nil
		}
		if _, ok := st.products[productID]; !ok {
			return referenced()
		}
		if _, ok := st.branches[branchID]; !ok {
			return referenced()
		}
		st.branchProducts[key] = product.BranchProduct{
			ProductID: productID,
			BranchID:  branchID,
			Status:    "active",
		}
		return nil
	})
}

func (r *StockRepo) SetBranchStock(ctx context.Context, productID, branchID id.ID, qty int64) error {
	return r.s.exec(ctx, func(st *state) error {
		key := bpKey{productID, branchID}
		bp, ok := st.branchProducts[key]
		if !ok {
			return apperror.NewNotFound("branch_product", productID.String())
		}
		if qty < 0 {
			return apperror.NewInsufficientStock(branchID.String(), productID.String(), bp.Stock-qty, bp.Stock)
		}
		bp.Stock = qty
		st.branchProducts[key] = bp
		return nil
	})
}

func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	return r.s.exec(ctx, func(st *state) error {
		st.movements = append(st.movements, movements...)
		return nil
	})
}

func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, rec stock.Recorder) ([]stock.Movement, error) {
	var out []stock.Movement
	_ = r.s.exec(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.RecorderType == rec.Type && m.RecorderRef == rec.Ref {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, nil
}

// PriceRepo implements prices.Repository.
type PriceRepo struct{ s *Store }

func (r *PriceRepo) Upsert(ctx context.Context, p *prices.Price) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.products[p.ProductID]; !ok {
			return referenced()
		}
		if _, ok := st.branches[p.BranchID]; !ok {
			return referenced()
		}
		if _, ok := st.priceTypes[p.PriceTypeID]; !ok {
			return referenced()
		}
		st.prices[priceKey{p.ProductID, p.BranchID, p.PriceTypeID}] = *p
		return nil
	})
}

func (r *PriceRepo) ListByProductBranch(ctx context.Context, productID, branchID id.ID) ([]prices.Price, error) {
	out := []prices.Price{}
	_ = r.s.exec(ctx, func(st *state) error {
		for k, p := range st.prices {
			if k.productID == productID && k.branchID == branchID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PriceTypeID.String() < out[j].PriceTypeID.String() })
	return out, nil
}

// PriceRowCount returns the number of stored price rows.
func (s *Store) PriceRowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.prices)
}
