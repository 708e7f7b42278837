package branch

import (
	"context"
	"fmt"
	"strings"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
	"inventra/pkg/logger"
)

// Service provides business logic for the Branch catalog.
type Service struct {
	*domain.CatalogService[*Branch]
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Branch service.
func NewService(repo Repository, txm tx.Manager, rec audit.Recorder) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Branch]{
		Repo:       repo,
		TxManager:  txm,
		Audit:      rec,
		EntityName: "branch",
	})

	svc := &Service{CatalogService: base, repo: repo, txm: txm}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.guardMainRename)
	base.Hooks().On(domain.BeforeDelete, svc.guardMainDelete)

	return svc
}

// prepareForCreate keeps the main flag out of regular creates.
func (s *Service) prepareForCreate(ctx context.Context, b *Branch) error {
	b.IsMain = false
	return nil
}

func (s *Service) guardMainRename(ctx context.Context, b *Branch) error {
	stored, err := s.repo.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	if stored.IsMain && stored.Name != b.Name {
		return apperror.NewConflict("the main branch cannot be renamed").WithDetail("id", b.ID.String())
	}
	b.IsMain = stored.IsMain
	return nil
}

func (s *Service) guardMainDelete(ctx context.Context, b *Branch) error {
	if b.IsMain {
		return apperror.NewConflict("the main branch cannot be deleted").WithDetail("id", b.ID.String())
	}
	return nil
}

// Rename changes name and address of a branch.
func (s *Service) Rename(ctx context.Context, branchID id.ID, name, address string) (*Branch, error) {
	b, err := s.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	updated := *b
	updated.Name = strings.TrimSpace(name)
	updated.Address = strings.TrimSpace(address)
	if err := s.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetMain returns the main branch.
func (s *Service) GetMain(ctx context.Context) (*Branch, error) {
	b, err := s.repo.GetMain(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("main branch", "main")
		}
		return nil, err
	}
	return b, nil
}

// IsMain reports whether branchID is the main branch. Unknown ids are NOT_FOUND.
func (s *Service) IsMain(ctx context.Context, branchID id.ID) (bool, error) {
	b, err := s.GetByID(ctx, branchID)
	if err != nil {
		return false, err
	}
	return b.IsMain, nil
}

// EnsureMain creates the main branch named name unless one exists.
func (s *Service) EnsureMain(ctx context.Context, name string) (*Branch, error) {
	var main *Branch
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetMain(ctx)
		if err == nil {
			main = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		b := NewBranch(name, "")
		b.IsMain = true
		if err := b.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create main branch: %w", err)
		}
		main = b
		logger.Info(ctx, "main branch created", "branch_id", b.ID, "name", b.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return main, nil
}
