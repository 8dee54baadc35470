package hirepurchase

import (
	"fmt"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits amounts are stored with
const AmountScale = 4

// withinScale reports whether d is stored without rounding
func withinScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

// Terms are the agreed values of a hire-purchase contract
type Terms struct {
	CashValue      decimal.Decimal
	HireValue      decimal.Decimal
	DownPayment    decimal.Decimal
	MonthlyPayment decimal.Decimal
	Length         int // months
}

// Balances are the amounts still owed under the cash and hire prices
type Balances struct {
	Cash decimal.Decimal
	Hire decimal.Decimal
}

// Equal reports whether both balances match
func (b Balances) Equal(o Balances) bool {
	return b.Cash.Equal(o.Cash) && b.Hire.Equal(o.Hire)
}

// Validate checks the terms. The down payment may never exceed the hire value;
// with strict set it may not exceed the cash value either.
func (t Terms) Validate(strict bool) error {
	nonNegative := []struct {
		field string
		value decimal.Decimal
	}{
		{"cash_value", t.CashValue},
		{"hire_value", t.HireValue},
		{"down_payment", t.DownPayment},
		{"monthly_payment", t.MonthlyPayment},
	}
	for _, v := range nonNegative {
		if v.value.IsNegative() {
			return invalidTerms(v.field, fmt.Sprintf("%s cannot be negative", v.field))
		}
		if !withinScale(v.value) {
			return invalidTerms(v.field, fmt.Sprintf("%s cannot have more than %d decimal places", v.field, AmountScale))
		}
	}
	if t.DownPayment.GreaterThan(t.HireValue) {
		return invalidTerms("down_payment", "Down payment cannot exceed the hire value")
	}
	if strict && t.DownPayment.GreaterThan(t.CashValue) {
		return invalidTerms("down_payment", "Down payment cannot exceed the cash value")
	}
	if t.Length <= 0 {
		return invalidTerms("length", "Contract length must be at least one month")
	}
	return nil
}

func invalidTerms(field, message string) *shared.DomainError {
	return shared.ErrInvalidContractTerms.WithMessage(message).WithField(field)
}

// ComputeInitialBalances returns the balances of a contract before any payment
func ComputeInitialBalances(t Terms) Balances {
	return RecomputeBalances(t, decimal.Zero)
}

// RecomputeBalances derives the balances from the terms and the sum of all
// committed payments. The down payment is counted once, here, and is not part
// of the payment stream.
func RecomputeBalances(t Terms, totalPaid decimal.Decimal) Balances {
	return Balances{
		Cash: t.CashValue.Sub(t.DownPayment).Sub(totalPaid),
		Hire: t.HireValue.Sub(t.DownPayment).Sub(totalPaid),
	}
}
