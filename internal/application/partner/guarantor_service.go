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

// GuarantorService handles guarantor-related business operations
type GuarantorService struct {
	scope   unitofwork.Scope
	retrier *unitofwork.Retrier
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewGuarantorService creates a new GuarantorService
func NewGuarantorService(scope unitofwork.Scope, retrier *unitofwork.Retrier, metrics *telemetry.LedgerMetrics, log *zap.Logger) *GuarantorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuarantorService{
		scope:   scope,
		retrier: retrier,
		metrics: metrics,
		logger:  log,
	}
}

// AllocateID reserves the next guarantor identifier without creating a guarantor
func (s *GuarantorService) AllocateID(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "guarantor_service", "allocate_id")
	defer span.End()

	uid, err := allocateAndInsert(ctx, s.scope, s.retrier, s.metrics, partner.GuarantorSequence, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrGuarantorUID, uid)
	return uid, nil
}

// Create creates a new guarantor with an allocated uid
func (s *GuarantorService) Create(ctx context.Context, req CreateGuarantorRequest) (*GuarantorResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "guarantor_service", "create")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var created *partner.Guarantor
	_, err := allocateAndInsert(ctx, s.scope, s.retrier, s.metrics, partner.GuarantorSequence,
		func(ctx context.Context, repos unitofwork.Repositories, uid int64) error {
			guarantor, err := partner.NewGuarantor(uid, req.profile())
			if err != nil {
				return err
			}
			if err := repos.Guarantors().Create(ctx, guarantor); err != nil {
				return err
			}
			created = guarantor
			return nil
		})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrGuarantorUID, created.UID)
	logger.WithLogger(ctx, s.logger).Info("Guarantor created",
		zap.Int64("guarantor_uid", created.UID),
	)

	response := ToGuarantorResponse(created)
	return &response, nil
}

// Update replaces the mutable fields of a guarantor
func (s *GuarantorService) Update(ctx context.Context, uid int64, req UpdateGuarantorRequest) (*GuarantorResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "guarantor_service", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrGuarantorUID, uid)

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var guarantor *partner.Guarantor
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		var err error
		guarantor, err = findGuarantor(ctx, repos, uid)
		if err != nil {
			return err
		}
		if err := guarantor.UpdateProfile(CreateGuarantorRequest(req).profile()); err != nil {
			return err
		}
		return repos.Guarantors().Update(ctx, guarantor)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToGuarantorResponse(guarantor)
	return &response, nil
}

// GetByUID retrieves a guarantor by its identifier
func (s *GuarantorService) GetByUID(ctx context.Context, uid int64) (*GuarantorResponse, error) {
	var guarantor *partner.Guarantor
	err := s.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		guarantor, err = findGuarantor(ctx, repos, uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToGuarantorResponse(guarantor)
	return &response, nil
}

// List retrieves guarantors with filtering and pagination
func (s *GuarantorService) List(ctx context.Context, filter GuarantorListFilter) (*shared.Paginated[GuarantorResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}

	domainFilter := toDomainFilter(filter.Search, filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir)
	if filter.Occupation != "" {
		domainFilter.Filters["occupation"] = filter.Occupation
	}

	var (
		guarantors []partner.Guarantor
		total      int64
	)
	err := s.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		if guarantors, err = repos.Guarantors().FindAll(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to list guarantors: %w", err)
		}
		if total, err = repos.Guarantors().Count(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to count guarantors: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToGuarantorResponses(guarantors), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

func findGuarantor(ctx context.Context, repos unitofwork.Repositories, uid int64) (*partner.Guarantor, error) {
	guarantor, err := repos.Guarantors().FindByUID(ctx, uid)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return nil, shared.NewNotFoundError("guarantor", uid)
		}
		return nil, err
	}
	return guarantor, nil
}
