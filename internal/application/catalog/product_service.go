package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/application/validation"
	"github.com/hirepurchase/ledger/internal/domain/catalog"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations.
// Products have no update path: a model designation, once stored, is final.
type ProductService struct {
	scope  unitofwork.Scope
	logger *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(scope unitofwork.Scope, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{scope: scope, logger: log}
}

// Create creates a new product. The model must be unique across all categories,
// compared case-insensitively.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product_service", "create")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	product, err := catalog.NewProduct(catalog.Category(req.Category), req.Model)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		exists, err := repos.Products().ExistsByModel(ctx, product.Model)
		if err != nil {
			return fmt.Errorf("failed to check product model: %w", err)
		}
		if exists {
			return shared.ErrDuplicateModel.
				WithMessage(fmt.Sprintf("Product model %q already exists", product.Model)).
				WithField("model")
		}
		return repos.Products().Create(ctx, product)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrProductID, product.ID)
	logger.WithLogger(ctx, s.logger).Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("category", string(product.Category)),
		zap.String("model", product.Model),
	)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	var product *catalog.Product
	err := s.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		product, err = repos.Products().FindByID(ctx, id)
		if shared.KindOf(err) == shared.KindNotFound {
			return shared.NewNotFoundError("product", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}

	var (
		products []catalog.Product
		total    int64
	)
	err := s.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		if products, err = repos.Products().FindAll(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		if total, err = repos.Products().Count(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToProductResponses(products), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}
