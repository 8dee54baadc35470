package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockContractRepository is a mock implementation of ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*hirepurchase.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*hirepurchase.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByAccountNumber(ctx context.Context, number string) (*hirepurchase.Contract, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Contract), args.Error(1)
}

func (m *MockContractRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockContractRepository) Create(ctx context.Context, contract *hirepurchase.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) SaveWithLock(ctx context.Context, contract *hirepurchase.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*hirepurchase.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByReceiptID(ctx context.Context, receiptID string) (*hirepurchase.Payment, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByReceiptID(ctx context.Context, receiptID string) (bool, error) {
	args := m.Called(ctx, receiptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]hirepurchase.Payment, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]hirepurchase.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumByContract(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *hirepurchase.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateAmount(ctx context.Context, payment *hirepurchase.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteByContract(ctx context.Context, contractID uuid.UUID) error {
	args := m.Called(ctx, contractID)
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByNumber(ctx context.Context, number string) (*hirepurchase.Account, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByNumberForUpdate(ctx context.Context, number string) (*hirepurchase.Account, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hirepurchase.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]hirepurchase.Account, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]hirepurchase.Account), args.Error(1)
}

func (m *MockAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) FindWithoutContract(ctx context.Context) ([]hirepurchase.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]hirepurchase.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *hirepurchase.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *hirepurchase.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, number string) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}

var (
	_ hirepurchase.ContractRepository = (*MockContractRepository)(nil)
	_ hirepurchase.PaymentRepository  = (*MockPaymentRepository)(nil)
	_ hirepurchase.AccountRepository  = (*MockAccountRepository)(nil)
)
