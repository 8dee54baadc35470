package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByModel finds a product by model designation, case-insensitively
	FindByModel(ctx context.Context, model string) (*Product, error)

	// ExistsByModel checks whether the model designation is taken
	ExistsByModel(ctx context.Context, model string) (bool, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error
}
