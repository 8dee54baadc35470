package hirepurchase

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ContractRepository defines the interface for contract persistence
type ContractRepository interface {
	// FindByID finds a contract by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByIDForUpdate finds a contract and locks its row until the transaction ends.
	// Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByAccountNumber finds the contract bound to an account
	FindByAccountNumber(ctx context.Context, number string) (*Contract, error)

	// ListIDs returns the ids of all contracts, oldest first
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Create inserts a new contract
	Create(ctx context.Context, contract *Contract) error

	// SaveWithLock persists terms and balances only if the stored version still
	// matches the contract's version, then advances the version.
	// Returns ErrConcurrencyConflict when another writer got there first.
	SaveWithLock(ctx context.Context, contract *Contract) error

	// Delete removes a contract
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByReceiptID finds a payment by its receipt identifier
	FindByReceiptID(ctx context.Context, receiptID string) (*Payment, error)

	// ExistsByReceiptID checks whether a receipt identifier is already used
	ExistsByReceiptID(ctx context.Context, receiptID string) (bool, error)

	// FindByContract lists a contract's payments ordered by date, then creation time
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]Payment, error)

	// SumByContract returns the sum of a contract's payment amounts
	SumByContract(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error)

	// Create inserts a new payment
	Create(ctx context.Context, payment *Payment) error

	// UpdateAmount persists a changed amount
	UpdateAmount(ctx context.Context, payment *Payment) error

	// Delete removes a payment
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByContract removes every payment of a contract
	DeleteByContract(ctx context.Context, contractID uuid.UUID) error
}

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// FindByNumber finds an account by its canonical number
	FindByNumber(ctx context.Context, number string) (*Account, error)

	// FindByNumberForUpdate finds an account and locks its row until the transaction ends
	FindByNumberForUpdate(ctx context.Context, number string) (*Account, error)

	// ExistsByNumber checks whether an account number is taken
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// FindAll finds all accounts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// Count counts accounts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindWithoutContract lists accounts whose contract was never attached
	FindWithoutContract(ctx context.Context) ([]Account, error)

	// Create inserts a new account together with its guarantor links
	Create(ctx context.Context, account *Account) error

	// Update persists status, contract reference, sale date and remarks
	Update(ctx context.Context, account *Account) error

	// Delete removes an account and its guarantor links
	Delete(ctx context.Context, number string) error
}
