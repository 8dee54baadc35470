package persistence

import (
	"context"
	"strings"

	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByUID finds a customer by its allocated identifier
func (r *GormCustomerRepository) FindByUID(ctx context.Context, uid int64) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "uid = ?", uid).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all customers matching the filter
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	var customerModels []models.CustomerModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)
	query = paginate(query, filter).Order(orderClause(filter.OrderBy, filter.OrderDir, CustomerSortFields, "uid"))

	if err := query.Find(&customerModels).Error; err != nil {
		return nil, translateError(err)
	}

	customers := make([]partner.Customer, len(customerModels))
	for i, model := range customerModels {
		customers[i] = *model.ToDomain()
	}
	return customers, nil
}

// Count counts customers matching the filter
func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// ExistsByUID checks whether a customer with the identifier exists
func (r *GormCustomerRepository) ExistsByUID(ctx context.Context, uid int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("uid = ?", uid).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return duplicate(err, shared.ErrConcurrencyConflict.WithMessage("Customer uid already taken"))
	}
	return nil
}

// Update persists the mutable fields of an existing customer
func (r *GormCustomerRepository) Update(ctx context.Context, customer *partner.Customer) error {
	result := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("uid = ?", customer.UID).
		Updates(map[string]any{
			"name":          customer.Name,
			"age":           customer.Age,
			"gender":        customer.Gender,
			"phone":         customer.Phone,
			"occupation":    customer.Occupation,
			"address":       customer.Address,
			"location_mark": customer.LocationMark,
			"guardian_type": customer.GuardianType,
			"guardian_name": customer.GuardianName,
			"updated_at":    customer.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies search and field filters without pagination
func (r *GormCustomerRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(guardian_name) LIKE ?",
			pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "occupation":
			query = query.Where("occupation = ?", value)
		case "gender":
			query = query.Where("gender = ?", value)
		case "phone":
			query = query.Where("phone = ?", value)
		}
	}
	return query
}

// GormGuarantorRepository implements GuarantorRepository using GORM
type GormGuarantorRepository struct {
	db *gorm.DB
}

// NewGormGuarantorRepository creates a new GormGuarantorRepository
func NewGormGuarantorRepository(db *gorm.DB) *GormGuarantorRepository {
	return &GormGuarantorRepository{db: db}
}

// FindByUID finds a guarantor by its allocated identifier
func (r *GormGuarantorRepository) FindByUID(ctx context.Context, uid int64) (*partner.Guarantor, error) {
	var model models.GuarantorModel
	if err := r.db.WithContext(ctx).First(&model, "uid = ?", uid).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByUIDs finds all guarantors among the given identifiers
func (r *GormGuarantorRepository) FindByUIDs(ctx context.Context, uids []int64) ([]partner.Guarantor, error) {
	if len(uids) == 0 {
		return []partner.Guarantor{}, nil
	}
	var guarantorModels []models.GuarantorModel
	if err := r.db.WithContext(ctx).
		Where("uid IN ?", uids).
		Order("uid ASC").
		Find(&guarantorModels).Error; err != nil {
		return nil, translateError(err)
	}
	guarantors := make([]partner.Guarantor, len(guarantorModels))
	for i, model := range guarantorModels {
		guarantors[i] = *model.ToDomain()
	}
	return guarantors, nil
}

// FindAll finds all guarantors matching the filter
func (r *GormGuarantorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Guarantor, error) {
	var guarantorModels []models.GuarantorModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GuarantorModel{}), filter)
	query = paginate(query, filter).Order(orderClause(filter.OrderBy, filter.OrderDir, GuarantorSortFields, "uid"))

	if err := query.Find(&guarantorModels).Error; err != nil {
		return nil, translateError(err)
	}

	guarantors := make([]partner.Guarantor, len(guarantorModels))
	for i, model := range guarantorModels {
		guarantors[i] = *model.ToDomain()
	}
	return guarantors, nil
}

// Count counts guarantors matching the filter
func (r *GormGuarantorRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GuarantorModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Create inserts a new guarantor
func (r *GormGuarantorRepository) Create(ctx context.Context, guarantor *partner.Guarantor) error {
	model := models.GuarantorModelFromDomain(guarantor)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return duplicate(err, shared.ErrConcurrencyConflict.WithMessage("Guarantor uid already taken"))
	}
	return nil
}

// Update persists the mutable fields of an existing guarantor
func (r *GormGuarantorRepository) Update(ctx context.Context, guarantor *partner.Guarantor) error {
	result := r.db.WithContext(ctx).Model(&models.GuarantorModel{}).
		Where("uid = ?", guarantor.UID).
		Updates(map[string]any{
			"name":       guarantor.Name,
			"phone":      guarantor.Phone,
			"address":    guarantor.Address,
			"occupation": guarantor.Occupation,
			"updated_at": guarantor.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormGuarantorRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ?", pattern, pattern)
	}
	if v, ok := filter.Filters["occupation"]; ok {
		query = query.Where("occupation = ?", v)
	}
	return query
}

// paginate applies offset and limit when the filter asks for a page
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// Ensure repositories implement their domain interfaces
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
var _ partner.GuarantorRepository = (*GormGuarantorRepository)(nil)
