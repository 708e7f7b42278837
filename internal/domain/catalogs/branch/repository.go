package branch

import (
	"context"

	"inventra/internal/domain"
)

// Repository defines the interface for Branch persistence.
type Repository interface {
	domain.CatalogRepository[*Branch]

	// GetMain returns the main branch or NOT_FOUND before bootstrap.
	GetMain(ctx context.Context) (*Branch, error)
}
