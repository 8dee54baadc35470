package hirepurchase

import (
	"time"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Contract is the aggregate root holding the agreed terms of an account and the
// running balances. Balances are a materialized view of the terms and the committed
// payments; callers never set them directly.
type Contract struct {
	shared.BaseAggregateRoot
	AccountNumber string
	Terms         Terms
	CashBalance   decimal.Decimal
	HireBalance   decimal.Decimal
}

// BalanceAudit compares stored balances with the ones derived from the payment set
type BalanceAudit struct {
	Expected  Balances
	Stored    Balances
	TotalPaid decimal.Decimal
}

// Drifted reports whether stored and derived balances disagree
func (a BalanceAudit) Drifted() bool {
	return !a.Expected.Equal(a.Stored)
}

// NewContract creates a contract for an account with its initial balances
func NewContract(accountNumber string, terms Terms, strict bool) (*Contract, error) {
	if err := terms.Validate(strict); err != nil {
		return nil, err
	}
	initial := ComputeInitialBalances(terms)
	return &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountNumber:     accountNumber,
		Terms:             terms,
		CashBalance:       initial.Cash,
		HireBalance:       initial.Hire,
	}, nil
}

// Balances returns the current balances
func (c *Contract) Balances() Balances {
	return Balances{Cash: c.CashBalance, Hire: c.HireBalance}
}

// ApplyPayment deducts a new payment from both balances after checking capacity
func (c *Contract) ApplyPayment(amount decimal.Decimal, policy CapacityPolicy) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount.WithField("amount")
	}
	if err := policy.Check(c.Balances(), amount); err != nil {
		return err
	}
	c.shift(amount.Neg())
	return nil
}

// ReversePayment restores a removed payment to both balances. Reversal is
// always permitted.
func (c *Contract) ReversePayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount.WithField("amount")
	}
	c.shift(amount)
	return nil
}

// AmendPayment moves the balances by the difference between the old and the new
// amount. Only an increase is checked against capacity.
func (c *Contract) AmendPayment(oldAmount, newAmount decimal.Decimal, policy CapacityPolicy) error {
	if !newAmount.IsPositive() {
		return shared.ErrInvalidAmount.WithField("amount")
	}
	delta := newAmount.Sub(oldAmount)
	if delta.IsPositive() {
		if err := policy.Check(c.Balances(), delta); err != nil {
			return err
		}
	}
	c.shift(delta.Neg())
	return nil
}

// ReviseTerms replaces the terms and re-derives the balances from totalPaid.
// Terms that would leave nothing payable below what was already paid are rejected.
func (c *Contract) ReviseTerms(terms Terms, totalPaid decimal.Decimal, strict bool, policy CapacityPolicy) error {
	if err := terms.Validate(strict); err != nil {
		return err
	}
	next := RecomputeBalances(terms, totalPaid)
	if policy.Remaining(next).IsNegative() {
		return invalidTerms("hire_value", "Revised terms leave less than what has already been paid")
	}
	c.Terms = terms
	c.CashBalance = next.Cash
	c.HireBalance = next.Hire
	c.UpdatedAt = time.Now()
	return nil
}

// Audit compares the stored balances with the ones derived from totalPaid
func (c *Contract) Audit(totalPaid decimal.Decimal) BalanceAudit {
	return BalanceAudit{
		Expected:  RecomputeBalances(c.Terms, totalPaid),
		Stored:    c.Balances(),
		TotalPaid: totalPaid,
	}
}

// Reconcile overwrites the stored balances with the derived ones and reports
// whether anything changed
func (c *Contract) Reconcile(totalPaid decimal.Decimal) bool {
	audit := c.Audit(totalPaid)
	if !audit.Drifted() {
		return false
	}
	c.CashBalance = audit.Expected.Cash
	c.HireBalance = audit.Expected.Hire
	c.UpdatedAt = time.Now()
	return true
}

func (c *Contract) shift(delta decimal.Decimal) {
	c.CashBalance = c.CashBalance.Add(delta)
	c.HireBalance = c.HireBalance.Add(delta)
	c.UpdatedAt = time.Now()
}
