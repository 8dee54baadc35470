package partner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

type customerFixture struct {
	repo      *MockCustomerRepository
	allocator *MockAllocator
	service   *CustomerService
}

func newCustomerFixture(t *testing.T) *customerFixture {
	t.Helper()
	repo := new(MockCustomerRepository)
	allocator := new(MockAllocator)
	scope := &unitofwork.NoOpScope{CustomerRepo: repo, Allocator: allocator}
	retrier := unitofwork.NewRetrier(2, time.Millisecond)
	return &customerFixture{
		repo:      repo,
		allocator: allocator,
		service:   NewCustomerService(scope, retrier, nil, zaptest.NewLogger(t)),
	}
}

func validCustomerRequest() CreateCustomerRequest {
	return CreateCustomerRequest{
		Name:       "Rahim Uddin",
		Phone:      "01700000000",
		Address:    "Station Road, Bogura",
		Occupation: "business",
		Gender:     "male",
	}
}

func TestCustomerService_Create_Success(t *testing.T) {
	f := newCustomerFixture(t)
	ctx := context.Background()

	f.allocator.On("Next", mock.Anything, partner.CustomerSequence).Return(int64(1_000_001), nil).Once()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*partner.Customer")).Return(nil).Once()

	result, err := f.service.Create(ctx, validCustomerRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(1_000_001), result.UID)
	assert.Equal(t, "Rahim Uddin", result.Name)
	assert.Equal(t, "business", result.Occupation)
	f.allocator.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestCustomerService_Create_ValidationFailsBeforeAllocation(t *testing.T) {
	f := newCustomerFixture(t)

	req := validCustomerRequest()
	req.Phone = "017000000000000"

	result, err := f.service.Create(context.Background(), req)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "phone", de.Field)
	f.allocator.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestCustomerService_Create_RetriesLostRace(t *testing.T) {
	f := newCustomerFixture(t)

	f.allocator.On("Next", mock.Anything, partner.CustomerSequence).Return(int64(1_000_001), nil).Once()
	f.allocator.On("Next", mock.Anything, partner.CustomerSequence).Return(int64(1_000_002), nil).Once()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*partner.Customer")).
		Return(shared.ErrConcurrencyConflict).Once()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*partner.Customer")).Return(nil).Once()

	result, err := f.service.Create(context.Background(), validCustomerRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(1_000_002), result.UID)
	f.repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestCustomerService_Create_ExhaustedRetries(t *testing.T) {
	f := newCustomerFixture(t)

	f.allocator.On("Next", mock.Anything, partner.CustomerSequence).
		Return(int64(0), shared.ErrConcurrencyConflict)

	result, err := f.service.Create(context.Background(), validCustomerRequest())

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, shared.ErrConcurrentAllocation))
	assert.Equal(t, shared.KindConcurrency, shared.KindOf(err))
	f.allocator.AssertNumberOfCalls(t, "Next", 3)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomerService_AllocateID(t *testing.T) {
	f := newCustomerFixture(t)
	f.allocator.On("Next", mock.Anything, partner.CustomerSequence).Return(int64(1_000_007), nil).Once()

	uid, err := f.service.AllocateID(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1_000_007), uid)
}

func TestCustomerService_AllocateID_TagsSpanWithSequence(t *testing.T) {
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	f := newCustomerFixture(t)
	f.allocator.On("Next", mock.Anything, partner.CustomerSequence).Return(int64(1_000_008), nil).Once()

	_, err := f.service.AllocateID(context.Background())
	require.NoError(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "customer_service.allocate_id", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String(telemetry.SpanAttrSequence, partner.CustomerSequence.Name))
	assert.Contains(t, ended[0].Attributes(), attribute.Int64(telemetry.SpanAttrCustomerUID, 1_000_008))
}

func TestCustomerService_Update(t *testing.T) {
	t.Run("replaces the profile and keeps the uid", func(t *testing.T) {
		f := newCustomerFixture(t)
		existing, err := partner.NewCustomer(1_000_001, partner.CustomerProfile{
			Name: "Rahim", Phone: "01700000000", Address: "Old Road",
		})
		require.NoError(t, err)

		f.repo.On("FindByUID", mock.Anything, int64(1_000_001)).Return(existing, nil).Once()
		f.repo.On("Update", mock.Anything, existing).Return(nil).Once()

		req := UpdateCustomerRequest(validCustomerRequest())
		req.Address = "New Road"
		result, err := f.service.Update(context.Background(), 1_000_001, req)

		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), result.UID)
		assert.Equal(t, "New Road", result.Address)
		f.repo.AssertExpectations(t)
	})

	t.Run("missing customer is named in the error", func(t *testing.T) {
		f := newCustomerFixture(t)
		f.repo.On("FindByUID", mock.Anything, int64(1_000_999)).Return(nil, shared.ErrNotFound).Once()

		_, err := f.service.Update(context.Background(), 1_000_999, UpdateCustomerRequest(validCustomerRequest()))

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.KindNotFound, de.Kind)
		assert.Equal(t, "customer", de.Entity)
		assert.Equal(t, "1000999", de.ID)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_GetByUID(t *testing.T) {
	f := newCustomerFixture(t)
	existing, err := partner.NewCustomer(1_000_003, partner.CustomerProfile{
		Name: "Karim", Phone: "01800000000", Address: "Market Road",
	})
	require.NoError(t, err)
	f.repo.On("FindByUID", mock.Anything, int64(1_000_003)).Return(existing, nil).Once()

	result, err := f.service.GetByUID(context.Background(), 1_000_003)

	require.NoError(t, err)
	assert.Equal(t, "Karim", result.Name)
}

func TestCustomerService_List(t *testing.T) {
	f := newCustomerFixture(t)
	customers := []partner.Customer{
		{UID: 1_000_001, CustomerProfile: partner.CustomerProfile{Name: "A", Occupation: partner.OccupationJob}},
		{UID: 1_000_002, CustomerProfile: partner.CustomerProfile{Name: "B", Occupation: partner.OccupationJob}},
	}
	matchFilter := mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Page == 2 && filter.PageSize == 2 && filter.Filters["occupation"] == "job" && filter.Search == "a"
	})
	f.repo.On("FindAll", mock.Anything, matchFilter).Return(customers, nil).Once()
	f.repo.On("Count", mock.Anything, matchFilter).Return(int64(5), nil).Once()

	result, err := f.service.List(context.Background(), CustomerListFilter{
		Search: "a", Occupation: "job", Page: 2, PageSize: 2,
	})

	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 3, result.TotalPages)
	f.repo.AssertExpectations(t)
}

func TestCustomerService_List_InvalidFilter(t *testing.T) {
	f := newCustomerFixture(t)

	_, err := f.service.List(context.Background(), CustomerListFilter{OrderDir: "sideways"})

	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	f.repo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}
