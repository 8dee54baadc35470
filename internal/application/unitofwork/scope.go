package unitofwork

import (
	"context"

	"github.com/hirepurchase/ledger/internal/domain/catalog"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// Scope provides transactional access to the ledger repositories.
// When a function is executed within Execute, all repository operations are part
// of the same database transaction and are committed or rolled back atomically.
type Scope interface {
	// Execute runs fn within a serializable transaction.
	// If fn returns an error, the transaction is rolled back.
	// Serialization failures surface as shared.ErrConcurrencyConflict.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Query runs fn against the repositories without opening a transaction
	Query(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to every ledger repository.
// All repositories returned from one Execute call share the same transaction.
//
// Aggregate boundary notes:
//   - Contracts: the Contract aggregate root. Balance changes go through SaveWithLock.
//   - Payments: child records of a contract; written only together with the
//     contract they move.
//   - Accounts: binds parties and product to a contract; guarantor links are
//     stored alongside.
type Repositories interface {
	Customers() partner.CustomerRepository
	Guarantors() partner.GuarantorRepository
	Products() catalog.ProductRepository
	Contracts() hirepurchase.ContractRepository
	Payments() hirepurchase.PaymentRepository
	Accounts() hirepurchase.AccountRepository
	// Sequences returns the identifier allocator bound to this unit of work
	Sequences() shared.IdentifierAllocator
}
