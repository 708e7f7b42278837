package purchase

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
	"inventra/internal/domain/registers/stock"
	"inventra/pkg/logger"
)

// Ledger is the part of the stock ledger purchases use.
type Ledger interface {
	Credit(ctx context.Context, pool stock.Pool, productID id.ID, qty int64, rec stock.Recorder) error
	Debit(ctx context.Context, pool stock.Pool, productID id.ID, qty int64, rec stock.Recorder) error
}

// Service provides purchase intake operations. Each operation is one transaction.
type Service struct {
	repo      Repository
	catalogs  Catalogs
	ledger    Ledger
	numerator numerator.Generator
	txm       tx.Manager
	audit     audit.Recorder
	now       func() time.Time
	attempts  int
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAllocationAttempts overrides the receipt allocation retry bound.
func WithAllocationAttempts(n int) Option {
	return func(s *Service) { s.attempts = n }
}

// NewService creates a new purchase service.
func NewService(
	repo Repository,
	catalogs Catalogs,
	ledger Ledger,
	gen numerator.Generator,
	txm tx.Manager,
	rec audit.Recorder,
	opts ...Option,
) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	s := &Service{
		repo:      repo,
		catalogs:  catalogs,
		ledger:    ledger,
		numerator: gen,
		txm:       txm,
		audit:     rec,
		now:       func() time.Time { return time.Now().UTC() },
		attempts:  numerator.MaxAllocationAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores every item under its own receipt number and credits main
// stock for items created as Received. Any failure discards all items.
func (s *Service) Create(ctx context.Context, in CreateInput) ([]string, error) {
	now := s.now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	receipts := make([]string, 0, len(in.Items))
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.catalogs.SupplierExists(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewNotFound("supplier", in.SupplierID.String())
		}

		for i, item := range in.Items {
			receipt, err := s.createItem(ctx, in, item, now)
			if err != nil {
				return withItem(err, i)
			}
			receipts = append(receipts, receipt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created",
		"receipts", receipts,
		"supplier_id", in.SupplierID,
		"status", in.Status,
	)
	return receipts, nil
}

func (s *Service) createItem(ctx context.Context, in CreateInput, item Item, now time.Time) (string, error) {
	ok, err := s.catalogs.ProductExists(ctx, item.ProductID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperror.NewNotFound("product", item.ProductID.String())
	}

	p := &Purchase{
		ID:           id.New(),
		SupplierID:   in.SupplierID,
		PurchaseDate: in.PurchaseDate,
		Status:       in.Status,
		Mode:         in.Mode,
		PaymentMode:  in.PaymentMode,
		ProductID:    item.ProductID,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		ExpiryDate:   item.ExpiryDate,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cfg := numerator.ReceiptConfig()
	receipt, err := numerator.Allocate(ctx, s.txm, s.attempts,
		func(ctx context.Context) (string, error) {
			return s.numerator.NextNumber(ctx, cfg, now)
		},
		func(ctx context.Context, token string) error {
			p.ReceiptNumber = token
			return s.repo.Insert(ctx, p)
		},
	)
	if err != nil {
		return "", err
	}

	if item.ExpiryDate != nil {
		_, err := s.repo.EnsureExpiry(ctx, ExpiryRecord{
			ProductID:     item.ProductID,
			ExpiryDate:    truncateDay(*item.ExpiryDate),
			ReceiptNumber: receipt,
		})
		if err != nil {
			return "", fmt.Errorf("ensure expiry: %w", err)
		}
	}

	if p.Status == StatusReceived {
		if err := s.ledger.Credit(ctx, stock.Main(), p.ProductID, p.Quantity, recorder(receipt)); err != nil {
			return "", err
		}
	}

	err = s.audit.Record(ctx, audit.Entry{
		EntityType: "purchase",
		EntityKey:  receipt,
		Action:     audit.ActionCreate,
		Changes:    p.auditState(),
	})
	if err != nil {
		return "", err
	}
	return receipt, nil
}

// SetStatus moves a purchase along the transition table. Entering Received
// credits main stock; Received is terminal, so the credit happens once.
func (s *Service) SetStatus(ctx context.Context, receipt string, to Status) (*Purchase, error) {
	if err := Machine.Validate("status", to); err != nil {
		return nil, err
	}

	var p *Purchase
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.getForUpdate(ctx, receipt)
		if err != nil {
			return err
		}

		from := p.Status
		if err := Machine.Check(from, to); err != nil {
			return err
		}

		p.Status = to
		p.UpdatedAt = s.now()
		if err := s.repo.UpdateStatus(ctx, receipt, to, p.UpdatedAt); err != nil {
			return fmt.Errorf("update purchase status: %w", err)
		}

		if to == StatusReceived && from != StatusReceived {
			if err := s.ledger.Credit(ctx, stock.Main(), p.ProductID, p.Quantity, recorder(receipt)); err != nil {
				return err
			}
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "purchase",
			EntityKey:  receipt,
			Action:     audit.ActionStatus,
			Changes:    map[string]any{"status": map[string]any{"old": string(from), "new": string(to)}},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase status changed", "receipt", receipt, "status", to)
	return p, nil
}

// Delete removes a purchase. Pending purchases cannot be deleted; Received
// ones give their quantity back first and fail with STOCK_REVERSAL_IMPOSSIBLE
// when main stock no longer holds it.
func (s *Service) Delete(ctx context.Context, receipt string) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.getForUpdate(ctx, receipt)
		if err != nil {
			return err
		}

		switch p.Status {
		case StatusPending:
			return apperror.NewInvalidStatusTransition("purchase", string(p.Status), "Deleted").
				WithDetail("reason", "pending purchases must be edited, not deleted")
		case StatusReceived:
			err := s.ledger.Debit(ctx, stock.Main(), p.ProductID, p.Quantity, recorder(receipt))
			if apperror.IsInsufficientStock(err) {
				return apperror.NewStockReversalImpossible("purchase", receipt).WithCause(err)
			}
			if err != nil {
				return err
			}
		}

		if err := s.repo.Delete(ctx, receipt); err != nil {
			return fmt.Errorf("delete purchase: %w", err)
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "purchase",
			EntityKey:  receipt,
			Action:     audit.ActionDelete,
			Changes:    p.auditState(),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase deleted", "receipt", receipt)
	return nil
}

// Get returns a purchase by receipt number.
func (s *Service) Get(ctx context.Context, receipt string) (*Purchase, error) {
	p, err := s.repo.GetByReceipt(ctx, receipt)
	if err != nil {
		return nil, notFoundAsPurchase(err, receipt)
	}
	return p, nil
}

// List returns purchases matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, receipt string) (*Purchase, error) {
	p, err := s.repo.GetByReceiptForUpdate(ctx, receipt)
	if err != nil {
		return nil, notFoundAsPurchase(err, receipt)
	}
	return p, nil
}

func recorder(receipt string) stock.Recorder {
	return stock.Recorder{Type: stock.RecorderPurchase, Ref: receipt}
}

func notFoundAsPurchase(err error, receipt string) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("purchase", receipt)
	}
	return err
}

// withItem tags an AppError with the index of the failing item.
func withItem(err error, i int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		appErr.WithDetail("item", i)
	}
	return err
}
