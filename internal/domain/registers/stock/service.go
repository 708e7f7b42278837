package stock

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/pkg/logger"
)

// Service provides the ledger operations.
//
// Every mutation joins the transaction carried by ctx; outside one it opens
// its own. Rows are locked before read-modify-write, so same-product changes
// serialise while different products proceed in parallel.
type Service struct {
	repo     Repository
	branches Branches
	txm      tx.Manager
	now      func() time.Time
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, branches Branches, txm tx.Manager) *Service {
	return &Service{
		repo:     repo,
		branches: branches,
		txm:      txm,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Credit increases the pool by qty. A missing branch row is created at zero first.
func (s *Service) Credit(ctx context.Context, pool Pool, productID id.ID, qty int64, rec Recorder) error {
	if qty <= 0 {
		return apperror.NewFieldValidation("quantity", "quantity must be positive")
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.lock(ctx, pool, productID, true)
		if err != nil {
			return err
		}
		return s.apply(ctx, pool, productID, current, qty, rec)
	})
}

// Debit decreases the pool by qty, failing with INSUFFICIENT_STOCK when it holds less.
func (s *Service) Debit(ctx context.Context, pool Pool, productID id.ID, qty int64, rec Recorder) error {
	if qty <= 0 {
		return apperror.NewFieldValidation("quantity", "quantity must be positive")
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.lock(ctx, pool, productID, false)
		if err != nil {
			return err
		}
		if current < qty {
			return apperror.NewInsufficientStock(pool.String(), productID.String(), qty, current)
		}
		return s.apply(ctx, pool, productID, current, -qty, rec)
	})
}

// Move debits from and credits to as one unit.
func (s *Service) Move(ctx context.Context, from, to Pool, productID id.ID, qty int64, rec Recorder) error {
	if from == to {
		return apperror.NewValidation("source and destination pools must differ")
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Debit(ctx, from, productID, qty, rec); err != nil {
			return err
		}
		return s.Credit(ctx, to, productID, qty, rec)
	})
}

// CheckAvailability verifies the pool can cover every demand, summing demands
// on the same product. Rows are locked in product id order, so concurrent
// checks over overlapping products cannot deadlock.
func (s *Service) CheckAvailability(ctx context.Context, pool Pool, demands []Demand) error {
	totals := make(map[id.ID]int64, len(demands))
	for _, d := range demands {
		totals[d.ProductID] += d.Quantity
	}

	productIDs := make([]id.ID, 0, len(totals))
	for pid := range totals {
		productIDs = append(productIDs, pid)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return bytes.Compare(productIDs[i][:], productIDs[j][:]) < 0
	})

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, pid := range productIDs {
			current, err := s.lock(ctx, pool, pid, false)
			if err != nil {
				return err
			}
			if current < totals[pid] {
				return apperror.NewInsufficientStock(pool.String(), pid.String(), totals[pid], current)
			}
		}
		return nil
	})
}

// MainStock returns the main pool quantity of a product.
func (s *Service) MainStock(ctx context.Context, productID id.ID) (int64, error) {
	qty, err := s.repo.GetProductStock(ctx, productID)
	if err != nil {
		return 0, notFoundAsProduct(err, productID)
	}
	return qty, nil
}

// BranchStock returns the quantity a branch holds; a product never stocked
// at the branch reads as 0. The main branch answers with main stock.
func (s *Service) BranchStock(ctx context.Context, productID, branchID id.ID) (int64, error) {
	isMain, err := s.branches.IsMainBranch(ctx, branchID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, apperror.NewNotFound("branch", branchID.String())
		}
		return 0, err
	}
	if isMain {
		return s.MainStock(ctx, productID)
	}

	if _, err := s.repo.GetProductStock(ctx, productID); err != nil {
		return 0, notFoundAsProduct(err, productID)
	}
	return s.repo.GetBranchStock(ctx, productID, branchID)
}

// Movements returns the journal rows written for rec.
func (s *Service) Movements(ctx context.Context, rec Recorder) ([]Movement, error) {
	return s.repo.GetMovementsByRecorder(ctx, rec)
}

// lock reads the pool quantity under a row lock. With create set, a missing
// branch row is inserted at zero; otherwise it reads as zero.
func (s *Service) lock(ctx context.Context, pool Pool, productID id.ID, create bool) (int64, error) {
	if pool.IsMain() {
		qty, err := s.repo.GetProductStockForUpdate(ctx, productID)
		if err != nil {
			return 0, notFoundAsProduct(err, productID)
		}
		return qty, nil
	}

	// the product row must exist for either pool
	if _, err := s.repo.GetProductStock(ctx, productID); err != nil {
		return 0, notFoundAsProduct(err, productID)
	}

	qty, found, err := s.repo.GetBranchStockForUpdate(ctx, productID, pool.BranchID)
	if err != nil {
		return 0, fmt.Errorf("lock branch stock: %w", err)
	}
	if found || !create {
		return qty, nil
	}

	if err := s.repo.EnsureBranchProduct(ctx, productID, pool.BranchID); err != nil {
		return 0, fmt.Errorf("create branch product: %w", err)
	}
	qty, _, err = s.repo.GetBranchStockForUpdate(ctx, productID, pool.BranchID)
	if err != nil {
		return 0, fmt.Errorf("lock branch stock: %w", err)
	}
	return qty, nil
}

func (s *Service) apply(ctx context.Context, pool Pool, productID id.ID, current, delta int64, rec Recorder) error {
	balance := current + delta

	var branchID *id.ID
	if pool.IsMain() {
		if err := s.repo.SetProductStock(ctx, productID, balance); err != nil {
			return fmt.Errorf("set product stock: %w", err)
		}
	} else {
		b := pool.BranchID
		branchID = &b
		if err := s.repo.SetBranchStock(ctx, productID, b, balance); err != nil {
			return fmt.Errorf("set branch stock: %w", err)
		}
	}

	err := s.repo.CreateMovements(ctx, []Movement{{
		ID:           id.New(),
		RecorderType: rec.Type,
		RecorderRef:  rec.Ref,
		BranchID:     branchID,
		ProductID:    productID,
		Quantity:     delta,
		Balance:      balance,
		RecordedAt:   s.now(),
	}})
	if err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Debug(ctx, "stock changed",
		"pool", pool.String(),
		"product_id", productID,
		"delta", delta,
		"balance", balance,
		"recorder", rec.Ref,
	)
	return nil
}

func notFoundAsProduct(err error, productID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("product", productID.String())
	}
	return err
}
