package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*hirepurchase.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByReceiptID finds a payment by its receipt identifier
func (r *GormPaymentRepository) FindByReceiptID(ctx context.Context, receiptID string) (*hirepurchase.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "receipt_id = ?", receiptID).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByReceiptID checks whether a receipt identifier is already used
func (r *GormPaymentRepository) ExistsByReceiptID(ctx context.Context, receiptID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("receipt_id = ?", receiptID).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// FindByContract lists a contract's payments ordered by date, then creation time
func (r *GormPaymentRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]hirepurchase.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("date ASC, created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, translateError(err)
	}
	payments := make([]hirepurchase.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// SumByContract returns the sum of a contract's payment amounts
func (r *GormPaymentRepository) SumByContract(ctx context.Context, contractID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("contract_id = ?", contractID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, translateError(err)
	}
	return total, nil
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *hirepurchase.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return duplicate(err, shared.ErrDuplicateReceipt.WithField("receipt_id"))
	}
	return nil
}

// UpdateAmount persists a changed amount
func (r *GormPaymentRepository) UpdateAmount(ctx context.Context, payment *hirepurchase.Payment) error {
	result := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"amount":     payment.Amount,
			"updated_at": payment.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByContract removes every payment of a contract
func (r *GormPaymentRepository) DeleteByContract(ctx context.Context, contractID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.PaymentModel{}, "contract_id = ?", contractID).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ hirepurchase.PaymentRepository = (*GormPaymentRepository)(nil)
