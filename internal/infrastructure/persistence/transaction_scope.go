package persistence

import (
	"context"
	"database/sql"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/catalog"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements unitofwork.Scope using GORM transactions.
// On postgres every transaction runs at SERIALIZABLE isolation.
type GormTransactionScope struct {
	db        *gorm.DB
	allocator shared.IdentifierAllocator
}

// ScopeOption customizes a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithAllocator replaces the table-backed identifier allocator, for example with
// the Redis one. The replacement runs outside the transaction.
func WithAllocator(a shared.IdentifierAllocator) ScopeOption {
	return func(s *GormTransactionScope) {
		s.allocator = a
	}
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos unitofwork.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.repositories(tx))
	}, s.txOptions()...)
	return translateError(err)
}

// Query runs the given function against repositories outside a transaction
func (s *GormTransactionScope) Query(ctx context.Context, fn func(repos unitofwork.Repositories) error) error {
	return fn(s.repositories(s.db.WithContext(ctx)))
}

func (s *GormTransactionScope) txOptions() []*sql.TxOptions {
	if s.db.Dialector.Name() == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return nil
}

func (s *GormTransactionScope) repositories(tx *gorm.DB) *gormRepositories {
	return &gormRepositories{tx: tx, allocator: s.allocator}
}

// gormRepositories provides access to all repositories within a transaction.
type gormRepositories struct {
	tx        *gorm.DB
	allocator shared.IdentifierAllocator
}

// Customers returns the customer repository scoped to the current transaction.
func (r *gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Guarantors returns the guarantor repository scoped to the current transaction.
func (r *gormRepositories) Guarantors() partner.GuarantorRepository {
	return NewGormGuarantorRepository(r.tx)
}

// Products returns the product repository scoped to the current transaction.
func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Contracts returns the contract repository scoped to the current transaction.
func (r *gormRepositories) Contracts() hirepurchase.ContractRepository {
	return NewGormContractRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormRepositories) Payments() hirepurchase.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Accounts returns the account repository scoped to the current transaction.
func (r *gormRepositories) Accounts() hirepurchase.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// Sequences returns the identifier allocator for the current transaction.
func (r *gormRepositories) Sequences() shared.IdentifierAllocator {
	if r.allocator != nil {
		return r.allocator
	}
	return NewGormIdentifierAllocator(r.tx)
}

// Ensure GormTransactionScope implements Scope
var _ unitofwork.Scope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ unitofwork.Repositories = (*gormRepositories)(nil)
