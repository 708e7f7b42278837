package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/infrastructure/storage/postgres"
)

const branchTable = "branches"

var _ branch.Repository = (*BranchRepo)(nil)

// BranchRepo implements branch.Repository.
type BranchRepo struct {
	*BaseCatalogRepo[*branch.Branch]
}

// NewBranchRepo creates a new branch repository.
func NewBranchRepo(txm *postgres.TxManager) *BranchRepo {
	return &BranchRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, branchTable, "branch",
			func() *branch.Branch { return &branch.Branch{} }),
	}
}

// GetMain returns the branch flagged is_main.
func (r *BranchRepo) GetMain(ctx context.Context) (*branch.Branch, error) {
	return r.getOne(ctx, squirrel.Eq{"is_main": true}, "main", "")
}

// Update writes name and address. The main flag never changes after creation.
func (r *BranchRepo) Update(ctx context.Context, b *branch.Branch) error {
	return r.UpdateColumns(ctx, b.ID, b, map[string]any{
		"name":       b.Name,
		"address":    b.Address,
		"updated_at": r.now(),
	})
}
