package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/application/catalog"
	"github.com/hirepurchase/ledger/internal/application/partner"
	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Core is the boundary the outer layers call into. It composes the party,
// catalog and ledger services over one transaction scope.
type Core struct {
	Customers  *partner.CustomerService
	Guarantors *partner.GuarantorService
	Products   *catalog.ProductService
	Payments   *PaymentLedger
	Accounts   *AccountBinder
}

// CoreOptions configures a Core
type CoreOptions struct {
	Policy  Policy
	Retrier *unitofwork.Retrier
	Metrics *telemetry.LedgerMetrics
	Logger  *zap.Logger
}

// NewCore creates a Core over the given scope
func NewCore(scope unitofwork.Scope, opts CoreOptions) *Core {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Core{
		Customers:  partner.NewCustomerService(scope, opts.Retrier, opts.Metrics, log.Named("customer")),
		Guarantors: partner.NewGuarantorService(scope, opts.Retrier, opts.Metrics, log.Named("guarantor")),
		Products:   catalog.NewProductService(scope, log.Named("product")),
		Payments:   NewPaymentLedger(scope, opts.Retrier, opts.Policy, opts.Metrics, log.Named("payment_ledger")),
		Accounts:   NewAccountBinder(scope, opts.Retrier, opts.Policy, opts.Metrics, log.Named("account_binder")),
	}
}

// AllocateCustomerID reserves the next customer identifier
func (c *Core) AllocateCustomerID(ctx context.Context) (int64, error) {
	return c.Customers.AllocateID(ctx)
}

// AllocateGuarantorID reserves the next guarantor identifier
func (c *Core) AllocateGuarantorID(ctx context.Context) (int64, error) {
	return c.Guarantors.AllocateID(ctx)
}

// ValidateAccountIdentifier returns the canonical upper-case form of an account number
func (c *Core) ValidateAccountIdentifier(raw string) (string, error) {
	return hirepurchase.ValidateAccountNumber(raw)
}

// CreateContract creates the contract of an account with its initial balances.
// A contract only exists bound to an account.
func (c *Core) CreateContract(ctx context.Context, accountNumber string, terms TermsRequest) (*ContractResponse, error) {
	return c.Accounts.AttachContract(ctx, accountNumber, terms)
}

// RecordPayment records an installment against a contract
func (c *Core) RecordPayment(ctx context.Context, contractID uuid.UUID, amount decimal.Decimal, date time.Time, receiptID string) (*PaymentResponse, error) {
	return c.Payments.RecordPayment(ctx, RecordPaymentRequest{
		ContractID: contractID,
		Amount:     amount,
		Date:       date,
		ReceiptID:  receiptID,
	})
}

// ReversePayment removes a payment and returns the restored balances
func (c *Core) ReversePayment(ctx context.Context, paymentID uuid.UUID) (*BalanceResponse, error) {
	return c.Payments.ReversePayment(ctx, paymentID)
}

// AmendPayment changes a payment amount and returns the updated balances
func (c *Core) AmendPayment(ctx context.Context, paymentID uuid.UUID, newAmount decimal.Decimal) (*BalanceResponse, error) {
	payment, err := c.Payments.AmendPayment(ctx, paymentID, newAmount)
	if err != nil {
		return nil, err
	}
	return payment.Balance, nil
}

// BindAccount binds a customer, a product and two guarantors under an account number
func (c *Core) BindAccount(ctx context.Context, number string, customerUID int64, productID uuid.UUID, guarantorUIDs []int64, saleDate time.Time) (*AccountResponse, error) {
	return c.Accounts.BindAccount(ctx, BindAccountRequest{
		Number:        number,
		CustomerUID:   customerUID,
		ProductID:     productID,
		GuarantorUIDs: guarantorUIDs,
		SaleDate:      saleDate,
	})
}

// GetContractBalance returns the current balances of a contract
func (c *Core) GetContractBalance(ctx context.Context, contractID uuid.UUID) (*BalanceResponse, error) {
	return c.Payments.GetContractBalance(ctx, contractID)
}

// GetPaymentHistory lists the payments of a contract ordered by date
func (c *Core) GetPaymentHistory(ctx context.Context, contractID uuid.UUID) ([]PaymentResponse, error) {
	return c.Payments.GetPaymentHistory(ctx, contractID)
}
