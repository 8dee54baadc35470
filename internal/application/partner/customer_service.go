package partner

import (
	"context"
	"fmt"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/application/validation"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	scope   unitofwork.Scope
	retrier *unitofwork.Retrier
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(scope unitofwork.Scope, retrier *unitofwork.Retrier, metrics *telemetry.LedgerMetrics, log *zap.Logger) *CustomerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerService{
		scope:   scope,
		retrier: retrier,
		metrics: metrics,
		logger:  log,
	}
}

// AllocateID reserves the next customer identifier without creating a customer
func (s *CustomerService) AllocateID(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_service", "allocate_id")
	defer span.End()

	uid, err := allocateAndInsert(ctx, s.scope, s.retrier, s.metrics, partner.CustomerSequence, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerUID, uid)
	return uid, nil
}

// Create creates a new customer. The uid is allocated in the same transaction as the insert.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_service", "create")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var created *partner.Customer
	_, err := allocateAndInsert(ctx, s.scope, s.retrier, s.metrics, partner.CustomerSequence,
		func(ctx context.Context, repos unitofwork.Repositories, uid int64) error {
			customer, err := partner.NewCustomer(uid, req.profile())
			if err != nil {
				return err
			}
			if err := repos.Customers().Create(ctx, customer); err != nil {
				return err
			}
			created = customer
			return nil
		})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerUID, created.UID)
	logger.WithLogger(ctx, s.logger).Info("Customer created",
		zap.Int64("customer_uid", created.UID),
	)

	response := ToCustomerResponse(created)
	return &response, nil
}

// Update replaces the non-identifying fields of a customer
func (s *CustomerService) Update(ctx context.Context, uid int64, req UpdateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_service", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerUID, uid)

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var customer *partner.Customer
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		var err error
		customer, err = findCustomer(ctx, repos, uid)
		if err != nil {
			return err
		}
		if err := customer.UpdateProfile(CreateCustomerRequest(req).profile()); err != nil {
			return err
		}
		return repos.Customers().Update(ctx, customer)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByUID retrieves a customer by its identifier
func (s *CustomerService) GetByUID(ctx context.Context, uid int64) (*CustomerResponse, error) {
	var customer *partner.Customer
	err := s.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		customer, err = findCustomer(ctx, repos, uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves customers with filtering and pagination
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}

	domainFilter := toDomainFilter(filter.Search, filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir)
	if filter.Occupation != "" {
		domainFilter.Filters["occupation"] = filter.Occupation
	}
	if filter.Gender != "" {
		domainFilter.Filters["gender"] = filter.Gender
	}
	if filter.Phone != "" {
		domainFilter.Filters["phone"] = filter.Phone
	}

	var (
		customers []partner.Customer
		total     int64
	)
	err := s.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		if customers, err = repos.Customers().FindAll(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to list customers: %w", err)
		}
		if total, err = repos.Customers().Count(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to count customers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToCustomerResponses(customers), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// findCustomer loads a customer, naming it in the not-found error
func findCustomer(ctx context.Context, repos unitofwork.Repositories, uid int64) (*partner.Customer, error) {
	customer, err := repos.Customers().FindByUID(ctx, uid)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return nil, shared.NewNotFoundError("customer", uid)
		}
		return nil, err
	}
	return customer, nil
}
