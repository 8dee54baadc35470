package partner

import (
	"context"

	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByUID finds a customer by its allocated identifier
	FindByUID(ctx context.Context, uid int64) (*Customer, error)

	// FindAll finds all customers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByUID checks whether a customer with the identifier exists
	ExistsByUID(ctx context.Context, uid int64) (bool, error)

	// Create inserts a new customer
	Create(ctx context.Context, customer *Customer) error

	// Update persists the mutable fields of an existing customer
	Update(ctx context.Context, customer *Customer) error
}

// GuarantorRepository defines the interface for guarantor persistence
type GuarantorRepository interface {
	// FindByUID finds a guarantor by its allocated identifier
	FindByUID(ctx context.Context, uid int64) (*Guarantor, error)

	// FindByUIDs finds all guarantors among the given identifiers
	FindByUIDs(ctx context.Context, uids []int64) ([]Guarantor, error)

	// FindAll finds all guarantors matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Guarantor, error)

	// Count counts guarantors matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new guarantor
	Create(ctx context.Context, guarantor *Guarantor) error

	// Update persists the mutable fields of an existing guarantor
	Update(ctx context.Context, guarantor *Guarantor) error
}
