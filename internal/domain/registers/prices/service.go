package prices

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/internal/domain/audit"
	"inventra/pkg/logger"
)

// Service maintains the pricing matrix.
type Service struct {
	repo     Repository
	catalogs Catalogs
	cache    Cache
	txm      tx.Manager
	audit    audit.Recorder
	now      func() time.Time
}

// NewService creates a pricing service. cache may be nil.
func NewService(repo Repository, catalogs Catalogs, cache Cache, txm tx.Manager, rec audit.Recorder) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{
		repo:     repo,
		catalogs: catalogs,
		cache:    cache,
		txm:      txm,
		audit:    rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UpsertPrice sets the price of (productID, branchID, priceTypeID).
// The cached rows of the pair are dropped once the write has committed.
func (s *Service) UpsertPrice(ctx context.Context, productID, branchID, priceTypeID id.ID, price types.Money) (*Price, error) {
	var row *Price
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalogs.IsMainBranch(ctx, branchID); err != nil {
			return err
		}
		var err error
		row, err = s.upsert(ctx, productID, branchID, priceTypeID, price)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Invalidate(ctx, productID, branchID)
	logger.Info(ctx, "price upserted",
		"product_id", productID,
		"branch_id", branchID,
		"price_type_id", priceTypeID,
		"price", row.Price.String(),
	)
	return row, nil
}

// ApplyBranchPrices stores submissions from the product create/edit path,
// skipping the main branch. It joins the caller's transaction; the caller
// calls Invalidate with the returned branch ids after commit.
func (s *Service) ApplyBranchPrices(ctx context.Context, productID id.ID, subs []Submission) ([]id.ID, error) {
	var touched []id.ID
	seen := make(map[id.ID]bool)

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, sub := range subs {
			isMain, err := s.catalogs.IsMainBranch(ctx, sub.BranchID)
			if err != nil {
				return err
			}
			if isMain {
				continue
			}
			if _, err := s.upsert(ctx, productID, sub.BranchID, sub.PriceTypeID, sub.Price); err != nil {
				return err
			}
			if !seen[sub.BranchID] {
				seen[sub.BranchID] = true
				touched = append(touched, sub.BranchID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

// ListPrices returns every price-type row of the pair. An empty result means
// no price is set.
func (s *Service) ListPrices(ctx context.Context, productID, branchID id.ID) ([]Price, error) {
	if s.cache != nil {
		rows, ok, err := s.cache.Get(ctx, productID, branchID)
		if err != nil {
			logger.Warn(ctx, "price cache read failed", "error", err)
		} else if ok {
			return rows, nil
		}
	}

	// the version is read before the store so a concurrent invalidation wins
	version, cacheable := int64(0), s.cache != nil
	if cacheable {
		v, err := s.cache.Version(ctx, productID)
		if err != nil {
			logger.Warn(ctx, "price cache version read failed", "error", err)
			cacheable = false
		}
		version = v
	}

	rows, err := s.repo.ListByProductBranch(ctx, productID, branchID)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, productID, branchID, version, rows); err != nil {
			logger.Warn(ctx, "price cache write failed", "error", err)
		}
	}
	return rows, nil
}

// Invalidate drops cached rows for the given pairs. Failures are logged only;
// entries also expire by TTL.
func (s *Service) Invalidate(ctx context.Context, productID id.ID, branchIDs ...id.ID) {
	if s.cache == nil || len(branchIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, productID, branchIDs...); err != nil {
		logger.Warn(ctx, "price cache invalidation failed", "product_id", productID, "error", err)
	}
}

func (s *Service) upsert(ctx context.Context, productID, branchID, priceTypeID id.ID, price types.Money) (*Price, error) {
	if types.IsNegative(price) {
		return nil, apperror.NewFieldValidation("price", "price must not be negative").
			WithDetail("value", price.String())
	}

	ok, err := s.catalogs.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}

	ok, err = s.catalogs.PriceTypeExists(ctx, priceTypeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("price_type", priceTypeID.String())
	}

	row := &Price{
		ProductID:   productID,
		BranchID:    branchID,
		PriceTypeID: priceTypeID,
		Price:       types.RoundPrice(price),
		UpdatedAt:   s.now(),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("upsert price: %w", err)
	}

	err = s.audit.Record(ctx, audit.Entry{
		EntityType: "product_price",
		EntityKey:  fmt.Sprintf("%s/%s/%s", productID, branchID, priceTypeID),
		Action:     audit.ActionUpdate,
		Changes:    map[string]any{"price": row.Price.String()},
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}
