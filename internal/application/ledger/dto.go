package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Contract DTOs
// =============================================================================

// TermsRequest carries the agreed values of a contract. Money fields are
// validated by the balance engine, which names the offending field.
type TermsRequest struct {
	CashValue      decimal.Decimal `json:"cash_value"`
	HireValue      decimal.Decimal `json:"hire_value"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Length         int             `json:"length" validate:"gt=0,lte=600"`
}

func (r TermsRequest) terms() hirepurchase.Terms {
	return hirepurchase.Terms{
		CashValue:      r.CashValue,
		HireValue:      r.HireValue,
		DownPayment:    r.DownPayment,
		MonthlyPayment: r.MonthlyPayment,
		Length:         r.Length,
	}
}

// ContractResponse represents a contract with its running balances
type ContractResponse struct {
	ID             uuid.UUID       `json:"id"`
	AccountNumber  string          `json:"account_number"`
	CashValue      decimal.Decimal `json:"cash_value"`
	HireValue      decimal.Decimal `json:"hire_value"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Length         int             `json:"length"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	HireBalance    decimal.Decimal `json:"hire_balance"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToContractResponse converts a domain Contract to ContractResponse
func ToContractResponse(c *hirepurchase.Contract) ContractResponse {
	return ContractResponse{
		ID:             c.ID,
		AccountNumber:  c.AccountNumber,
		CashValue:      c.Terms.CashValue,
		HireValue:      c.Terms.HireValue,
		DownPayment:    c.Terms.DownPayment,
		MonthlyPayment: c.Terms.MonthlyPayment,
		Length:         c.Terms.Length,
		CashBalance:    c.CashBalance,
		HireBalance:    c.HireBalance,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// BalanceResponse is the current state of a contract's balances
type BalanceResponse struct {
	ContractID    uuid.UUID       `json:"contract_id"`
	AccountNumber string          `json:"account_number"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	HireBalance   decimal.Decimal `json:"hire_balance"`
}

func toBalanceResponse(c *hirepurchase.Contract) BalanceResponse {
	return BalanceResponse{
		ContractID:    c.ID,
		AccountNumber: c.AccountNumber,
		CashBalance:   c.CashBalance,
		HireBalance:   c.HireBalance,
	}
}

// AuditResponse compares stored balances with the ones derived from the payments
type AuditResponse struct {
	ContractID    uuid.UUID       `json:"contract_id"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	ExpectedCash  decimal.Decimal `json:"expected_cash_balance"`
	ExpectedHire  decimal.Decimal `json:"expected_hire_balance"`
	StoredCash    decimal.Decimal `json:"stored_cash_balance"`
	StoredHire    decimal.Decimal `json:"stored_hire_balance"`
	Drifted       bool            `json:"drifted"`
	Reconciled    bool            `json:"reconciled"`
	AccountNumber string          `json:"account_number"`
}

func toAuditResponse(c *hirepurchase.Contract, audit hirepurchase.BalanceAudit) AuditResponse {
	return AuditResponse{
		ContractID:    c.ID,
		AccountNumber: c.AccountNumber,
		TotalPaid:     audit.TotalPaid,
		ExpectedCash:  audit.Expected.Cash,
		ExpectedHire:  audit.Expected.Hire,
		StoredCash:    audit.Stored.Cash,
		StoredHire:    audit.Stored.Hire,
		Drifted:       audit.Drifted(),
	}
}

// =============================================================================
// Payment DTOs
// =============================================================================

// RecordPaymentRequest represents a request to record an installment
type RecordPaymentRequest struct {
	ContractID uuid.UUID       `json:"contract_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	ReceiptID  string          `json:"receipt_id" validate:"required,max=100"`
	Remark     string          `json:"remark" validate:"max=500"`
}

// PaymentResponse represents a payment together with the balances it left behind
type PaymentResponse struct {
	ID         uuid.UUID        `json:"id"`
	ContractID uuid.UUID        `json:"contract_id"`
	Date       time.Time        `json:"date"`
	ReceiptID  string           `json:"receipt_id"`
	Amount     decimal.Decimal  `json:"amount"`
	Remark     string           `json:"remark,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	Balance    *BalanceResponse `json:"balance,omitempty"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *hirepurchase.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		ContractID: p.ContractID,
		Date:       p.Date,
		ReceiptID:  p.ReceiptID,
		Amount:     p.Amount,
		Remark:     p.Remark,
		CreatedAt:  p.CreatedAt,
	}
}

func withBalance(p *hirepurchase.Payment, c *hirepurchase.Contract) *PaymentResponse {
	response := ToPaymentResponse(p)
	balance := toBalanceResponse(c)
	response.Balance = &balance
	return &response
}

// =============================================================================
// Account DTOs
// =============================================================================

// BindAccountRequest binds a customer, a product and two guarantors under a new account
type BindAccountRequest struct {
	Number        string    `json:"number" validate:"required,max=20"`
	CustomerUID   int64     `json:"customer_uid" validate:"required,gt=0"`
	ProductID     uuid.UUID `json:"product_id"`
	GuarantorUIDs []int64   `json:"guarantors" validate:"len=2,unique,dive,gt=0"`
	SaleDate      time.Time `json:"sale_date"`
	Remarks       string    `json:"remarks" validate:"max=1000"`
}

// UpdateAccountRequest changes the mutable details of an account. A non-empty
// Number must name the account being updated.
type UpdateAccountRequest struct {
	Number   string    `json:"number" validate:"max=20"`
	SaleDate time.Time `json:"sale_date"`
	Remarks  string    `json:"remarks" validate:"max=1000"`
}

// AccountResponse represents an account as stored
type AccountResponse struct {
	Number        string     `json:"number"`
	CustomerUID   int64      `json:"customer_uid"`
	ProductID     uuid.UUID  `json:"product_id"`
	GuarantorUIDs []int64    `json:"guarantors"`
	ContractID    *uuid.UUID `json:"contract_id,omitempty"`
	SaleDate      time.Time  `json:"sale_date"`
	Status        string     `json:"status"`
	Remarks       string     `json:"remarks,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToAccountResponse converts a domain Account to AccountResponse
func ToAccountResponse(a *hirepurchase.Account) AccountResponse {
	return AccountResponse{
		Number:        a.Number,
		CustomerUID:   a.CustomerUID,
		ProductID:     a.ProductID,
		GuarantorUIDs: append([]int64(nil), a.GuarantorUIDs...),
		ContractID:    a.ContractID,
		SaleDate:      a.SaleDate,
		Status:        string(a.Status),
		Remarks:       a.Remarks,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// PartyRef names a customer or guarantor inside an account view
type PartyRef struct {
	UID   int64  `json:"uid"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// ProductRef names a product inside an account view
type ProductRef struct {
	ID       uuid.UUID `json:"id"`
	Category string    `json:"category"`
	Model    string    `json:"model"`
}

// AccountDetailResponse is an account with every party, the product and the contract resolved
type AccountDetailResponse struct {
	AccountResponse
	Customer   PartyRef          `json:"customer"`
	Product    ProductRef        `json:"product"`
	Guarantors []PartyRef        `json:"guarantor_details"`
	Contract   *ContractResponse `json:"contract,omitempty"`
}

// AccountSummaryResponse is the list view of an account
type AccountSummaryResponse struct {
	Number        string           `json:"number"`
	CustomerUID   int64            `json:"customer_uid"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	Status        string           `json:"status"`
	SaleDate      time.Time        `json:"sale_date"`
	HasContract   bool             `json:"has_contract"`
	HireBalance   *decimal.Decimal `json:"hire_balance,omitempty"`
}

// AccountListFilter represents filter options for listing accounts
type AccountListFilter struct {
	Status       string     `json:"status" validate:"omitempty,oneof=active closed"`
	CustomerUID  int64      `json:"customer_uid" validate:"gte=0"`
	GuarantorUID int64      `json:"guarantor_uid" validate:"gte=0"`
	ProductID    *uuid.UUID `json:"product_id"`
	HasContract  *bool      `json:"has_contract"`
	Search       string     `json:"search"`
	Page         int        `json:"page" validate:"gte=0"`
	PageSize     int        `json:"page_size" validate:"gte=0,lte=100"`
	OrderBy      string     `json:"order_by"`
	OrderDir     string     `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// BindingCandidates lists what an integrator can pick from when binding an account
type BindingCandidates struct {
	Customers  []PartyRef   `json:"customers"`
	Guarantors []PartyRef   `json:"guarantors"`
	Products   []ProductRef `json:"products"`
}
