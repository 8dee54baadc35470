package partner

import (
	"context"

	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByUID(ctx context.Context, uid int64) (*partner.Customer, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByUID(ctx context.Context, uid int64) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

// MockGuarantorRepository is a mock implementation of GuarantorRepository
type MockGuarantorRepository struct {
	mock.Mock
}

func (m *MockGuarantorRepository) FindByUID(ctx context.Context, uid int64) (*partner.Guarantor, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Guarantor), args.Error(1)
}

func (m *MockGuarantorRepository) FindByUIDs(ctx context.Context, uids []int64) ([]partner.Guarantor, error) {
	args := m.Called(ctx, uids)
	return args.Get(0).([]partner.Guarantor), args.Error(1)
}

func (m *MockGuarantorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Guarantor, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Guarantor), args.Error(1)
}

func (m *MockGuarantorRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGuarantorRepository) Create(ctx context.Context, guarantor *partner.Guarantor) error {
	args := m.Called(ctx, guarantor)
	return args.Error(0)
}

func (m *MockGuarantorRepository) Update(ctx context.Context, guarantor *partner.Guarantor) error {
	args := m.Called(ctx, guarantor)
	return args.Error(0)
}

// MockAllocator is a mock implementation of IdentifierAllocator
type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) Next(ctx context.Context, seq shared.Sequence) (int64, error) {
	args := m.Called(ctx, seq)
	return args.Get(0).(int64), args.Error(1)
}

var (
	_ partner.CustomerRepository  = (*MockCustomerRepository)(nil)
	_ partner.GuarantorRepository = (*MockGuarantorRepository)(nil)
	_ shared.IdentifierAllocator  = (*MockAllocator)(nil)
)
