package transfer

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines the interface for transfer persistence.
type Repository interface {
	// InsertLines stores the lines of one transfer. A taken
	// (reference_code, line_no) pair is DUPLICATE_ENTRY.
	InsertLines(ctx context.Context, lines []Line) error

	// GetByReference returns the lines ordered by line number, or NOT_FOUND.
	GetByReference(ctx context.Context, reference string) ([]Line, error)

	// GetByReferenceForUpdate is GetByReference with row locks.
	GetByReferenceForUpdate(ctx context.Context, reference string) ([]Line, error)

	// GetReferenceByLineID resolves a line id to its reference code.
	GetReferenceByLineID(ctx context.Context, lineID id.ID) (string, error)

	UpdateStatus(ctx context.Context, reference string, status Status, updatedAt time.Time) error

	Delete(ctx context.Context, reference string) error

	// List returns transfer headers, newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error)
}

// Catalogs answers questions about referenced records. Branch lookups
// report NOT_FOUND for unknown ids.
type Catalogs interface {
	ProductExists(ctx context.Context, productID id.ID) (bool, error)
	IsMainBranch(ctx context.Context, branchID id.ID) (bool, error)
	MainBranchID(ctx context.Context) (id.ID, error)
}
