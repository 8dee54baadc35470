package hirepurchase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Payment is one installment received against a contract
type Payment struct {
	shared.BaseEntity
	ContractID uuid.UUID
	Date       time.Time
	ReceiptID  string
	Amount     decimal.Decimal
	Remark     string
}

// NormalizeReceiptID trims a receipt identifier and checks it is usable
func NormalizeReceiptID(raw string) (string, error) {
	receipt := strings.TrimSpace(raw)
	if receipt == "" {
		return "", shared.NewValidationError("INVALID_RECEIPT", "receipt_id", "Receipt identifier cannot be empty")
	}
	if len(receipt) > 100 {
		return "", shared.NewValidationError("INVALID_RECEIPT", "receipt_id", "Receipt identifier cannot exceed 100 characters")
	}
	return receipt, nil
}

// NewPayment creates a payment; it does not touch the contract balances
func NewPayment(contractID uuid.UUID, amount decimal.Decimal, date time.Time, receiptID, remark string) (*Payment, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTRACT", "contract_id", "Contract is required")
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "date", "Payment date is required")
	}
	receipt, err := NormalizeReceiptID(receiptID)
	if err != nil {
		return nil, err
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		ContractID: contractID,
		Date:       date,
		ReceiptID:  receipt,
		Amount:     amount,
		Remark:     strings.TrimSpace(remark),
	}, nil
}

// ChangeAmount sets a new positive amount and returns the previous one
func (p *Payment) ChangeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	old := p.Amount
	p.Amount = amount
	p.UpdatedAt = time.Now()
	return old, nil
}

// ValidateAmount checks a payment amount is positive and stored without rounding
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount.WithField("amount")
	}
	if !withinScale(amount) {
		return shared.ErrInvalidAmount.
			WithMessage(fmt.Sprintf("Amount cannot have more than %d decimal places", AmountScale)).
			WithField("amount")
	}
	return nil
}

// TotalPaid sums the amounts of the given payments
func TotalPaid(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
