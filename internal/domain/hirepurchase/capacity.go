package hirepurchase

import (
	"fmt"
	"strings"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CapacityPolicy decides which balance bounds a forward payment
type CapacityPolicy string

const (
	// CapacityHire checks payments against the hire balance only
	CapacityHire CapacityPolicy = "hire"
	// CapacityBoth checks payments against both the hire and the cash balance
	CapacityBoth CapacityPolicy = "both"
)

// ParseCapacityPolicy parses a configured policy name; empty means CapacityHire
func ParseCapacityPolicy(s string) (CapacityPolicy, error) {
	switch CapacityPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CapacityHire:
		return CapacityHire, nil
	case CapacityBoth:
		return CapacityBoth, nil
	}
	return "", fmt.Errorf("unknown capacity policy %q", s)
}

// Remaining returns how much can still be paid under the policy
func (p CapacityPolicy) Remaining(b Balances) decimal.Decimal {
	if p == CapacityBoth {
		return decimal.Min(b.Hire, b.Cash)
	}
	return b.Hire
}

// Check fails with ErrBalanceExceeded when amount is more than the remaining balance
func (p CapacityPolicy) Check(b Balances, amount decimal.Decimal) error {
	remaining := p.Remaining(b)
	if amount.GreaterThan(remaining) {
		return shared.ErrBalanceExceeded.WithMessage(
			fmt.Sprintf("Payment of %s exceeds the remaining balance of %s", amount.String(), remaining.String()),
		).WithField("amount")
	}
	return nil
}
