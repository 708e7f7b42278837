package product

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
	"inventra/internal/domain/registers/prices"
	"inventra/internal/domain/registers/stock"
	"inventra/pkg/logger"
)

// Ledger credits opening stock.
type Ledger interface {
	Credit(ctx context.Context, pool stock.Pool, productID id.ID, qty int64, rec stock.Recorder) error
}

// PriceWriter stores branch prices from the product form.
type PriceWriter interface {
	ApplyBranchPrices(ctx context.Context, productID id.ID, subs []prices.Submission) ([]id.ID, error)
	Invalidate(ctx context.Context, productID id.ID, branchIDs ...id.ID)
}

// BranchResolver tells the main branch apart; unknown ids are NOT_FOUND.
type BranchResolver interface {
	IsMain(ctx context.Context, branchID id.ID) (bool, error)
}

// Service provides business logic for products.
type Service struct {
	repo     Repository
	ledger   Ledger
	prices   PriceWriter
	branches BranchResolver
	txm      tx.Manager
	audit    audit.Recorder
	now      func() time.Time
}

// NewService creates a new Product service.
func NewService(
	repo Repository,
	ledger Ledger,
	priceWriter PriceWriter,
	branches BranchResolver,
	txm tx.Manager,
	rec audit.Recorder,
) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{
		repo:     repo,
		ledger:   ledger,
		prices:   priceWriter,
		branches: branches,
		txm:      txm,
		audit:    rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a product, credits its opening stock and applies branch
// settings in one transaction.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if in.OpeningStock < 0 {
		return nil, apperror.NewFieldValidation("opening_stock", "opening stock must not be negative")
	}

	now := s.now()
	p := &Product{ID: id.New(), IsMain: true, CreatedAt: now, UpdatedAt: now}
	in.apply(p)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	var touched []id.ID
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		if in.OpeningStock > 0 {
			rec := stock.Recorder{Type: stock.RecorderOpening, Ref: p.ID.String()}
			if err := s.ledger.Credit(ctx, stock.Main(), p.ID, in.OpeningStock, rec); err != nil {
				return err
			}
			p.Stock = in.OpeningStock
		}

		var err error
		touched, err = s.applyBranches(ctx, p.ID, in.Branches)
		if err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "product",
			EntityKey:  p.ID.String(),
			Action:     audit.ActionCreate,
			Changes:    p.AuditState(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.prices.Invalidate(ctx, p.ID, touched...)
	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name, "opening_stock", in.OpeningStock)
	return p, nil
}

// Update edits attributes and branch settings. Stock is left alone.
func (s *Service) Update(ctx context.Context, productID id.ID, in Input) (*Product, error) {
	var (
		p       *Product
		touched []id.ID
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.Get(ctx, productID)
		if err != nil {
			return err
		}
		before := p.AuditState()

		in.apply(p)
		p.UpdatedAt = s.now()
		if err := p.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		touched, err = s.applyBranches(ctx, p.ID, in.Branches)
		if err != nil {
			return err
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "product",
			EntityKey:  p.ID.String(),
			Action:     audit.ActionUpdate,
			Changes:    audit.Diff(before, p.AuditState()),
		})
	})
	if err != nil {
		return nil, err
	}

	s.prices.Invalidate(ctx, p.ID, touched...)
	logger.Info(ctx, "product updated", "product_id", p.ID)
	return p, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, err
	}
	return p, nil
}

// Exists reports whether the product is stored.
func (s *Service) Exists(ctx context.Context, productID id.ID) (bool, error) {
	_, err := s.repo.GetByID(ctx, productID)
	if err == nil {
		return true, nil
	}
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// List returns products page by page.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter.Normalize())
}

// BranchProducts returns the per-branch rows of a product.
func (s *Service) BranchProducts(ctx context.Context, productID id.ID) ([]BranchProduct, error) {
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListBranchProducts(ctx, productID)
}

// applyBranches writes branch rows and prices, skipping the main branch whose
// stock and settings live on the product row itself.
func (s *Service) applyBranches(ctx context.Context, productID id.ID, settings []BranchSettings) ([]id.ID, error) {
	var subs []prices.Submission

	for i, bs := range settings {
		isMain, err := s.branches.IsMain(ctx, bs.BranchID)
		if err != nil {
			return nil, err
		}
		if isMain {
			continue
		}

		status := bs.Status
		if status == "" {
			status = domain.StatusActive
		}
		if !status.Valid() {
			return nil, apperror.NewFieldValidation(fmt.Sprintf("branches[%d].status", i), "status must be active or inactive")
		}
		if bs.AlertThreshold < 0 {
			return nil, apperror.NewFieldValidation(fmt.Sprintf("branches[%d].alert_threshold", i), "alert threshold must not be negative")
		}

		err = s.repo.UpsertBranchSettings(ctx, &BranchProduct{
			ProductID:      productID,
			BranchID:       bs.BranchID,
			AlertThreshold: bs.AlertThreshold,
			Status:         status,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert branch settings: %w", err)
		}

		for _, pi := range bs.Prices {
			subs = append(subs, prices.Submission{BranchID: bs.BranchID, PriceTypeID: pi.PriceTypeID, Price: pi.Price})
		}
	}

	if len(subs) == 0 {
		return nil, nil
	}
	return s.prices.ApplyBranchPrices(ctx, productID, subs)
}
