package unitofwork

import (
	"context"

	"github.com/hirepurchase/ledger/internal/domain/catalog"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// NoOpScope runs functions against fixed repositories without a transaction.
// It is useful for service tests with mocked repositories.
type NoOpScope struct {
	CustomerRepo  partner.CustomerRepository
	GuarantorRepo partner.GuarantorRepository
	ProductRepo   catalog.ProductRepository
	ContractRepo  hirepurchase.ContractRepository
	PaymentRepo   hirepurchase.PaymentRepository
	AccountRepo   hirepurchase.AccountRepository
	Allocator     shared.IdentifierAllocator
}

// Execute runs fn without a real transaction
func (s *NoOpScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

// Query runs fn without a real transaction
func (s *NoOpScope) Query(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

// Customers returns the customer repository.
func (s *NoOpScope) Customers() partner.CustomerRepository { return s.CustomerRepo }

// Guarantors returns the guarantor repository.
func (s *NoOpScope) Guarantors() partner.GuarantorRepository { return s.GuarantorRepo }

// Products returns the product repository.
func (s *NoOpScope) Products() catalog.ProductRepository { return s.ProductRepo }

// Contracts returns the contract repository.
func (s *NoOpScope) Contracts() hirepurchase.ContractRepository { return s.ContractRepo }

// Payments returns the payment repository.
func (s *NoOpScope) Payments() hirepurchase.PaymentRepository { return s.PaymentRepo }

// Accounts returns the account repository.
func (s *NoOpScope) Accounts() hirepurchase.AccountRepository { return s.AccountRepo }

// Sequences returns the identifier allocator.
func (s *NoOpScope) Sequences() shared.IdentifierAllocator { return s.Allocator }

// Ensure NoOpScope implements both interfaces
var _ Scope = (*NoOpScope)(nil)
var _ Repositories = (*NoOpScope)(nil)
