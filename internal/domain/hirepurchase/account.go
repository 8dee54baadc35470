package hirepurchase

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// AccountStatus is the lifecycle state of an account
type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountClosed AccountStatus = "closed"
)

// GuarantorsPerAccount is the exact number of guarantors every account carries
const GuarantorsPerAccount = 2

// Account binds a customer, a product, two guarantors and, once attached, a
// contract. The account number is the identity and cannot change.
type Account struct {
	Number        string
	CustomerUID   int64
	ProductID     uuid.UUID
	GuarantorUIDs []int64
	ContractID    *uuid.UUID
	SaleDate      time.Time
	Status        AccountStatus
	Remarks       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAccount validates the account number and the guarantor set and creates an
// active account without a contract. A zero sale date means today.
func NewAccount(rawNumber string, customerUID int64, productID uuid.UUID, guarantorUIDs []int64, saleDate time.Time, remarks string) (*Account, error) {
	number, err := ValidateAccountNumber(rawNumber)
	if err != nil {
		return nil, err
	}
	if customerUID <= 0 {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "customer_uid", "Customer is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "product_id", "Product is required")
	}
	if err := validateGuarantors(guarantorUIDs); err != nil {
		return nil, err
	}
	now := time.Now()
	if saleDate.IsZero() {
		saleDate = now
	}
	return &Account{
		Number:        number,
		CustomerUID:   customerUID,
		ProductID:     productID,
		GuarantorUIDs: append([]int64(nil), guarantorUIDs...),
		SaleDate:      saleDate,
		Status:        AccountActive,
		Remarks:       strings.TrimSpace(remarks),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func validateGuarantors(uids []int64) error {
	if len(uids) != GuarantorsPerAccount {
		return shared.NewValidationError("INVALID_GUARANTORS", "guarantors", "An account needs exactly two guarantors")
	}
	if uids[0] == uids[1] {
		return shared.NewValidationError("INVALID_GUARANTORS", "guarantors", "The two guarantors must be different people")
	}
	return nil
}

// HasContract reports whether a contract has been attached
func (a *Account) HasContract() bool {
	return a.ContractID != nil
}

// AttachContract records the contract of the account; an account holds at most one
func (a *Account) AttachContract(contractID uuid.UUID) error {
	if a.HasContract() {
		return shared.ErrContractAttached.WithMessage("Account " + a.Number + " already has a contract")
	}
	a.ContractID = &contractID
	a.UpdatedAt = time.Now()
	return nil
}

// EnsureNumber fails with ErrImmutableIdentifier when raw names a different account number
func (a *Account) EnsureNumber(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	number, err := ValidateAccountNumber(raw)
	if err != nil {
		return err
	}
	if number != a.Number {
		return shared.ErrImmutableIdentifier.WithMessage("Account number cannot be changed").WithField("number")
	}
	return nil
}

// UpdateDetails changes the sale date and remarks
func (a *Account) UpdateDetails(saleDate time.Time, remarks string) {
	if !saleDate.IsZero() {
		a.SaleDate = saleDate
	}
	a.Remarks = strings.TrimSpace(remarks)
	a.UpdatedAt = time.Now()
}

// Close marks the account as settled
func (a *Account) Close() error {
	if a.Status == AccountClosed {
		return shared.ErrInvalidState.WithMessage("Account is already closed")
	}
	a.Status = AccountClosed
	a.UpdatedAt = time.Now()
	return nil
}

// Reopen returns a closed account to active
func (a *Account) Reopen() error {
	if a.Status == AccountActive {
		return shared.ErrInvalidState.WithMessage("Account is already active")
	}
	a.Status = AccountActive
	a.UpdatedAt = time.Now()
	return nil
}
