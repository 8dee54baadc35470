package persistence

import (
	"context"
	"strings"

	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByNumber finds an account by its canonical number
func (r *GormAccountRepository) FindByNumber(ctx context.Context, number string) (*hirepurchase.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Preload("Guarantors").
		First(&model, "number = ?", number).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByNumberForUpdate finds an account with SELECT ... FOR UPDATE
func (r *GormAccountRepository) FindByNumberForUpdate(ctx context.Context, number string) (*hirepurchase.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "number = ?", number).Error; err != nil {
		return nil, notFound(err)
	}
	if err := r.db.WithContext(ctx).
		Where("account_number = ?", number).
		Find(&model.Guarantors).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByNumber checks whether an account number is taken
func (r *GormAccountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AccountModel{}).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// FindAll finds all accounts matching the filter
func (r *GormAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]hirepurchase.Account, error) {
	var accountModels []models.AccountModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter)
	query = paginate(query, filter).Order(orderClause(filter.OrderBy, filter.OrderDir, AccountSortFields, "created_at"))

	if err := query.Preload("Guarantors").Find(&accountModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toAccounts(accountModels), nil
}

// Count counts accounts matching the filter
func (r *GormAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// FindWithoutContract lists accounts whose contract was never attached
func (r *GormAccountRepository) FindWithoutContract(ctx context.Context) ([]hirepurchase.Account, error) {
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("contract_id IS NULL").
		Order("created_at ASC").
		Preload("Guarantors").
		Find(&accountModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toAccounts(accountModels), nil
}

// Create inserts a new account together with its guarantor links
func (r *GormAccountRepository) Create(ctx context.Context, account *hirepurchase.Account) error {
	model := models.AccountModelFromDomain(account)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return duplicate(err, shared.ErrDuplicateAccount.WithField("number"))
	}
	links := models.AccountGuarantorModels(account)
	if len(links) == 0 {
		return nil
	}
	if err := db.Create(&links).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update persists status, contract reference, sale date and remarks
func (r *GormAccountRepository) Update(ctx context.Context, account *hirepurchase.Account) error {
	result := r.db.WithContext(ctx).Model(&models.AccountModel{}).
		Where("number = ?", account.Number).
		Updates(map[string]any{
			"contract_id": account.ContractID,
			"sale_date":   account.SaleDate,
			"status":      account.Status,
			"remarks":     account.Remarks,
			"updated_at":  account.UpdatedAt,
		})
	if result.Error != nil {
		return duplicate(result.Error, shared.ErrContractAttached)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an account and its guarantor links
func (r *GormAccountRepository) Delete(ctx context.Context, number string) error {
	db := r.db.WithContext(ctx)
	if err := db.Delete(&models.AccountGuarantorModel{}, "account_number = ?", number).Error; err != nil {
		return translateError(err)
	}
	result := db.Delete(&models.AccountModel{}, "number = ?", number)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToUpper(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("number LIKE ?", pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_uid":
			query = query.Where("customer_uid = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "guarantor_uid":
			query = query.Where("number IN (?)",
				r.db.Model(&models.AccountGuarantorModel{}).Select("account_number").Where("guarantor_uid = ?", value))
		case "has_contract":
			if value == true {
				query = query.Where("contract_id IS NOT NULL")
			} else {
				query = query.Where("contract_id IS NULL")
			}
		}
	}
	return query
}

func toAccounts(accountModels []models.AccountModel) []hirepurchase.Account {
	accounts := make([]hirepurchase.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts
}

// Ensure GormAccountRepository implements AccountRepository
var _ hirepurchase.AccountRepository = (*GormAccountRepository)(nil)
