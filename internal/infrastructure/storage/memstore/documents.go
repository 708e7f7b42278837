package memstore

import (
	"context"
	"sort"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/purchase"
	"inventra/internal/domain/documents/transfer"
)

var (
	_ purchase.Repository = (*PurchaseRepo)(nil)
	_ transfer.Repository = (*TransferRepo)(nil)
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct{ s *Store }

func (r *PurchaseRepo) Insert(ctx context.Context, p *purchase.Purchase) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, taken := st.purchases[p.ReceiptNumber]; taken {
			return apperror.NewDuplicate("purchase", "receipt_number", p.ReceiptNumber)
		}
		if _, ok := st.suppliers[p.SupplierID]; !ok {
			return referenced()
		}
		if _, ok := st.products[p.ProductID]; !ok {
			return referenced()
		}
		st.purchases[p.ReceiptNumber] = *p
		return nil
	})
}

func (r *PurchaseRepo) GetByReceipt(ctx context.Context, receipt string) (*purchase.Purchase, error) {
	var out *purchase.Purchase
	err := r.s.exec(ctx, func(st *state) error {
		p, ok := st.purchases[receipt]
		if !ok {
			return apperror.NewNotFound("purchase", receipt)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *PurchaseRepo) GetByReceiptForUpdate(ctx context.Context, receipt string) (*purchase.Purchase, error) {
	return r.GetByReceipt(ctx, receipt)
}

func (r *PurchaseRepo) UpdateStatus(ctx context.Context, receipt string, status purchase.Status, updatedAt time.Time) error {
	return r.s.exec(ctx, func(st *state) error {
		p, ok := st.purchases[receipt]
		if !ok {
			return apperror.NewNotFound("purchase", receipt)
		}
		p.Status = status
		p.UpdatedAt = updatedAt
		st.purchases[receipt] = p
		return nil
	})
}

func (r *PurchaseRepo) Delete(ctx context.Context, receipt string) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.purchases[receipt]; !ok {
			return apperror.NewNotFound("purchase", receipt)
		}
		delete(st.purchases, receipt)
		return nil
	})
}

func (r *PurchaseRepo) List(ctx context.Context, f purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	var items []*purchase.Purchase
	_ = r.s.exec(ctx, func(st *state) error {
		for _, p := range st.purchases {
			if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
				continue
			}
			if f.ProductID != nil && p.ProductID != *f.ProductID {
				continue
			}
			if f.Status != nil && p.Status != *f.Status {
				continue
			}
			if f.From != nil && p.PurchaseDate.Before(*f.From) {
				continue
			}
			if f.To != nil && p.PurchaseDate.After(*f.To) {
				continue
			}
			p := p
			items = append(items, &p)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].ReceiptNumber > items[j].ReceiptNumber })
	return domain.Page(items, f.ListFilter), nil
}

func (r *PurchaseRepo) EnsureExpiry(ctx context.Context, rec purchase.ExpiryRecord) (bool, error) {
	var created bool
	err := r.s.exec(ctx, func(st *state) error {
		key := expiryKey{rec.ProductID, rec.ExpiryDate.Format(time.DateOnly)}
		if _, ok := st.expiries[key]; ok {
			return nil
		}
		st.expiries[key] = rec
		created = true
		return nil
	})
	return created, err
}

// ExpiryRecords returns expiry records of a product.
func (s *Store) ExpiryRecords(productID id.ID) []purchase.ExpiryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []purchase.ExpiryRecord
	for k, rec := range s.st.expiries {
		if k.productID == productID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out
}

// TransferRepo implements transfer.Repository.
type TransferRepo struct{ s *Store }

func (r *TransferRepo) InsertLines(ctx context.Context, lines []transfer.Line) error {
	if len(lines) == 0 {
		return nil
	}
	return r.s.exec(ctx, func(st *state) error {
		ref := lines[0].ReferenceCode
		existing := st.transfers[ref]
		taken := make(map[int]bool, len(existing))
		for _, l := range existing {
			taken[l.LineNo] = true
		}
		for _, l := range lines {
			if taken[l.LineNo] {
				return apperror.NewDuplicate("stock_transfer", "reference_code", ref)
			}
			taken[l.LineNo] = true
			if _, ok := st.products[l.ProductID]; !ok {
				return referenced()
			}
			if _, ok := st.branches[l.DestinationBranchID]; !ok {
				return referenced()
			}
		}
		st.transfers[ref] = append(append([]transfer.Line(nil), existing...), lines...)
		return nil
	})
}

func (r *TransferRepo) GetByReference(ctx context.Context, reference string) ([]transfer.Line, error) {
	var out []transfer.Line
	err := r.s.exec(ctx, func(st *state) error {
		lines, ok := st.transfers[reference]
		if !ok {
			return apperror.NewNotFound("stock_transfer", reference)
		}
		out = append([]transfer.Line(nil), lines...)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, err
}

func (r *TransferRepo) GetByReferenceForUpdate(ctx context.Context, reference string) ([]transfer.Line, error) {
	return r.GetByReference(ctx, reference)
}

func (r *TransferRepo) GetReferenceByLineID(ctx context.Context, lineID id.ID) (string, error) {
	var ref string
	err := r.s.exec(ctx, func(st *state) error {
		for code, lines := range st.transfers {
			for _, l := range lines {
				if l.ID == lineID {
					ref = code
					return nil
				}
			}
		}
		return apperror.NewNotFound("stock_transfer", lineID.String())
	})
	return ref, err
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, reference string, status transfer.Status, updatedAt time.Time) error {
	return r.s.exec(ctx, func(st *state) error {
		lines, ok := st.transfers[reference]
		if !ok {
			return apperror.NewNotFound("stock_transfer", reference)
		}
		updated := make([]transfer.Line, len(lines))
		for i, l := range lines {
			l.Status = status
			l.UpdatedAt = updatedAt
			updated[i] = l
		}
		st.transfers[reference] = updated
		return nil
	})
}

func (r *TransferRepo) Delete(ctx context.Context, reference string) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.transfers[reference]; !ok {
			return apperror.NewNotFound("stock_transfer", reference)
		}
		delete(st.transfers, reference)
		return nil
	})
}

func (r *TransferRepo) List(ctx context.Context, f transfer.ListFilter) (domain.ListResult[*transfer.Transfer], error) {
	var items []*transfer.Transfer
	_ = r.s.exec(ctx, func(st *state) error {
		for _, lines := range st.transfers {
			sorted := append([]transfer.Line(nil), lines...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].LineNo < sorted[j].LineNo })
			t := transfer.FromLines(sorted)
			if f.DestinationBranchID != nil && t.DestinationBranchID != *f.DestinationBranchID {
				continue
			}
			if f.Status != nil && t.Status != *f.Status {
				continue
			}
			items = append(items, t)
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool {
		return items[i].Lines[0].CreatedAt.After(items[j].Lines[0].CreatedAt) ||
			(items[i].Lines[0].CreatedAt.Equal(items[j].Lines[0].CreatedAt) && items[i].ReferenceCode < items[j].ReferenceCode)
	})
	return domain.Page(items, f.ListFilter), nil
}
