package transfer

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

// Ledger is the part of the stock ledger transfers use.
type Ledger interface {
	CheckAvailability(ctx context.Context, pool stock.Pool, demands []stock.Demand) error
	Move(ctx context.Context, from, to stock.Pool, productID id.ID, qty int64, rec stock.Recorder) error
}

// Service provides stock transfer operations. Pending transfers hold no
// reservation; stock moves only when a transfer is received.
type Service struct {
	repo     Repository
	catalogs Catalogs
	ledger   Ledger
	txm      tx.Manager
	audit    audit.Recorder
	now      func() time.Time
	newCode  func() (string, error)
	attempts int
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeGenerator overrides reference code generation.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

// NewService creates a new transfer service.
func NewService(
	repo Repository,
	catalogs Catalogs,
	ledger Ledger,
	txm tx.Manager,
	rec audit.Recorder,
	opts ...Option,
) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	s := &Service{
		repo:     repo,
		catalogs: catalogs,
		ledger:   ledger,
		txm:      txm,
		audit:    rec,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  numerator.TransferCode,
		attempts: numerator.MaxAllocationAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a transfer from the main branch to in.BranchID. Main stock
// must cover every line before anything is written; a transfer created as
// Received moves the stock right away.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transfer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *Transfer
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		isMain, err := s.catalogs.IsMainBranch(ctx, in.BranchID)
		if err != nil {
			return err
		}
		if isMain {
			return apperror.NewFieldValidation("branch_id", "destination must not be the main branch")
		}
		mainID, err := s.catalogs.MainBranchID(ctx)
		if err != nil {
			return err
		}

		demands := make([]stock.Demand, 0, len(in.Items))
		for i, item := range in.Items {
			ok, err := s.catalogs.ProductExists(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewNotFound("product", item.ProductID.String()).WithDetail("item", i)
			}
			demands = append(demands, stock.Demand{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		if err := s.ledger.CheckAvailability(ctx, stock.Main(), demands); err != nil {
			return err
		}

		now := s.now()
		var lines []Line
		_, err = numerator.Allocate(ctx, s.txm, s.attempts,
			func(ctx context.Context) (string, error) { return s.newCode() },
			func(ctx context.Context, ref string) error {
				lines = buildLines(ref, mainID, in, now)
				return s.repo.InsertLines(ctx, lines)
			},
		)
		if err != nil {
			return err
		}
		created = FromLines(lines)

		if in.Status == StatusReceived {
			if err := s.move(ctx, created); err != nil {
				return err
			}
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "stock_transfer",
			EntityKey:  created.ReferenceCode,
			Action:     audit.ActionCreate,
			Changes: map[string]any{
				"destination_branch_id": in.BranchID.String(),
				"status":                string(in.Status),
				"lines":                 len(lines),
				"quantity":              created.TotalQuantity(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transfer created",
		"reference", created.ReferenceCode,
		"destination_branch_id", created.DestinationBranchID,
		"status", created.Status,
		"lines", len(created.Lines),
	)
	return created, nil
}

// SetStatus moves a transfer, given by reference code or line id, along the
// transition table. Receiving re-checks main stock and moves every line; any
// failure leaves all lines untouched.
func (s *Service) SetStatus(ctx context.Context, referenceOrID string, to Status) (*Transfer, error) {
	if err := Machine.Validate("status", to); err != nil {
		return nil, err
	}

	var t *Transfer
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ref, err := s.resolveReference(ctx, referenceOrID)
		if err != nil {
			return err
		}
		t, err = s.getForUpdate(ctx, ref)
		if err != nil {
			return err
		}

		from := t.Status
		if err := Machine.Check(from, to); err != nil {
			return err
		}

		if to == StatusReceived {
			demands := make([]stock.Demand, 0, len(t.Lines))
			for _, l := range t.Lines {
				demands = append(demands, stock.Demand{ProductID: l.ProductID, Quantity: l.Quantity})
			}
			if err := s.ledger.CheckAvailability(ctx, stock.Main(), demands); err != nil {
				return err
			}
			if err := s.move(ctx, t); err != nil {
				return err
			}
		}

		now := s.now()
		if err := s.repo.UpdateStatus(ctx, ref, to, now); err != nil {
			return fmt.Errorf("update transfer status: %w", err)
		}
		t.Status = to
		for i := range t.Lines {
			t.Lines[i].Status = to
			t.Lines[i].UpdatedAt = now
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "stock_transfer",
			EntityKey:  ref,
			Action:     audit.ActionStatus,
			Changes:    map[string]any{"status": map[string]any{"old": string(from), "new": string(to)}},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transfer status changed", "reference", t.ReferenceCode, "status", to)
	return t, nil
}

// Delete removes a Pending transfer. Pending transfers never touched the
// ledger, so nothing is given back.
func (s *Service) Delete(ctx context.Context, reference string) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.getForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if t.Status != StatusPending {
			return apperror.NewInvalidStatusTransition("transfer", string(t.Status), "Deleted")
		}
		if err := s.repo.Delete(ctx, reference); err != nil {
			return fmt.Errorf("delete transfer: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "stock_transfer",
			EntityKey:  reference,
			Action:     audit.ActionDelete,
			Changes:    map[string]any{"lines": len(t.Lines), "quantity": t.TotalQuantity()},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock transfer deleted", "reference", reference)
	return nil
}

// Get returns a transfer by reference code or line id.
func (s *Service) Get(ctx context.Context, referenceOrID string) (*Transfer, error) {
	ref, err := s.resolveReference(ctx, referenceOrID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetByReference(ctx, ref)
	if err != nil {
		return nil, notFoundAsTransfer(err, ref)
	}
	return FromLines(lines), nil
}

// List returns transfers matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) move(ctx context.Context, t *Transfer) error {
	rec := stock.Recorder{Type: stock.RecorderTransfer, Ref: t.ReferenceCode}
	to := stock.Branch(t.DestinationBranchID)
	for _, l := range t.Lines {
		if err := s.ledger.Move(ctx, stock.Main(), to, l.ProductID, l.Quantity, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveReference(ctx context.Context, referenceOrID string) (string, error) {
	lineID, err := id.Parse(referenceOrID)
	if err != nil {
		return referenceOrID, nil
	}
	ref, err := s.repo.GetReferenceByLineID(ctx, lineID)
	if err != nil {
		return "", notFoundAsTransfer(err, referenceOrID)
	}
	return ref, nil
}

func (s *Service) getForUpdate(ctx context.Context, ref string) (*Transfer, error) {
	lines, err := s.repo.GetByReferenceForUpdate(ctx, ref)
	if err != nil {
		return nil, notFoundAsTransfer(err, ref)
	}
	return FromLines(lines), nil
}

func buildLines(ref string, mainID id.ID, in CreateInput, now time.Time) []Line {
	lines := make([]Line, 0, len(in.Items))
	for i, item := range in.Items {
		lines = append(lines, Line{
			ID:                  id.New(),
			ReferenceCode:       ref,
			LineNo:              i + 1,
			SourceBranchID:      mainID,
			DestinationBranchID: in.BranchID,
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			TransferDate:        in.TransferDate,
			Status:              in.Status,
			Notes:               in.Notes,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}
	return lines
}

func notFoundAsTransfer(err error, ref string) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("stock_transfer", ref)
	}
	return err
}
