package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormContractRepository implements ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*hirepurchase.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a contract with SELECT ... FOR UPDATE.
// Dialects without row locks (sqlite) drop the clause and rely on the
// single-writer connection instead.
func (r *GormContractRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*hirepurchase.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAccountNumber finds the contract bound to an account
func (r *GormContractRepository) FindByAccountNumber(ctx context.Context, number string) (*hirepurchase.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "account_number = ?", number).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ListIDs returns the ids of all contracts, oldest first
func (r *GormContractRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.ContractModel{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// Create inserts a new contract
func (r *GormContractRepository) Create(ctx context.Context, contract *hirepurchase.Contract) error {
	model := models.ContractModelFromDomain(contract)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return duplicate(err, shared.ErrContractAttached.WithMessage("Account "+contract.AccountNumber+" already has a contract"))
	}
	return nil
}

// SaveWithLock persists terms and balances with an optimistic version check.
// On success the contract's version is advanced to the stored one.
func (r *GormContractRepository) SaveWithLock(ctx context.Context, contract *hirepurchase.Contract) error {
	result := r.db.WithContext(ctx).Model(&models.ContractModel{}).
		Where("id = ? AND version = ?", contract.ID, contract.Version).
		Updates(map[string]any{
			"cash_value":      contract.Terms.CashValue,
			"hire_value":      contract.Terms.HireValue,
			"down_payment":    contract.Terms.DownPayment,
			"monthly_payment": contract.Terms.MonthlyPayment,
			"length":          contract.Terms.Length,
			"cash_balance":    contract.CashBalance,
			"hire_balance":    contract.HireBalance,
			"updated_at":      contract.UpdatedAt,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	contract.Version++
	return nil
}

// Delete removes a contract
func (r *GormContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ContractModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormContractRepository implements ContractRepository
var _ hirepurchase.ContractRepository = (*GormContractRepository)(nil)
