package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the Contract aggregate root.
type ContractModel struct {
	AggregateModel
	AccountNumber  string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	CashValue      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	HireValue      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DownPayment    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MonthlyPayment decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Length         int             `gorm:"not null"`
	CashBalance    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	HireBalance    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract aggregate.
func (m *ContractModel) ToDomain() *hirepurchase.Contract {
	return &hirepurchase.Contract{
		BaseAggregateRoot: m.AggregateModel.ToDomainAggregateRoot(),
		AccountNumber:     m.AccountNumber,
		Terms: hirepurchase.Terms{
			CashValue:      m.CashValue,
			HireValue:      m.HireValue,
			DownPayment:    m.DownPayment,
			MonthlyPayment: m.MonthlyPayment,
			Length:         m.Length,
		},
		CashBalance: m.CashBalance,
		HireBalance: m.HireBalance,
	}
}

// FromDomain populates the persistence model from a domain Contract aggregate.
func (m *ContractModel) FromDomain(c *hirepurchase.Contract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.AccountNumber = c.AccountNumber
	m.CashValue = c.Terms.CashValue
	m.HireValue = c.Terms.HireValue
	m.DownPayment = c.Terms.DownPayment
	m.MonthlyPayment = c.Terms.MonthlyPayment
	m.Length = c.Terms.Length
	m.CashBalance = c.CashBalance
	m.HireBalance = c.HireBalance
}

// ContractModelFromDomain creates a new persistence model from a domain Contract aggregate.
func ContractModelFromDomain(c *hirepurchase.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// PaymentModel is the persistence model for the Payment entity.
type PaymentModel struct {
	BaseModel
	ContractID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date       time.Time       `gorm:"not null;index"`
	ReceiptID  string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Remark     string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *hirepurchase.Payment {
	return &hirepurchase.Payment{
		BaseEntity: m.BaseModel.ToDomain(),
		ContractID: m.ContractID,
		Date:       m.Date,
		ReceiptID:  m.ReceiptID,
		Amount:     m.Amount,
		Remark:     m.Remark,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *hirepurchase.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.ContractID = p.ContractID
	m.Date = p.Date
	m.ReceiptID = p.ReceiptID
	m.Amount = p.Amount
	m.Remark = p.Remark
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment entity.
func PaymentModelFromDomain(p *hirepurchase.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// AccountModel is the persistence model for the Account entity. Guarantor links
// live in AccountGuarantorModel.
type AccountModel struct {
	Number      string                     `gorm:"type:varchar(20);primaryKey"`
	CustomerUID int64                      `gorm:"column:customer_uid;not null;index"`
	ProductID   uuid.UUID                  `gorm:"type:uuid;not null;index"`
	ContractID  *uuid.UUID                 `gorm:"type:uuid;uniqueIndex"`
	SaleDate    time.Time                  `gorm:"not null"`
	Status      hirepurchase.AccountStatus `gorm:"type:varchar(10);not null;default:'active';index"`
	Remarks     string                     `gorm:"type:text"`
	CreatedAt   time.Time                  `gorm:"not null"`
	UpdatedAt   time.Time                  `gorm:"not null"`

	Guarantors []AccountGuarantorModel `gorm:"foreignKey:AccountNumber;references:Number"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
// Guarantor links must be preloaded.
func (m *AccountModel) ToDomain() *hirepurchase.Account {
	uids := make([]int64, len(m.Guarantors))
	for _, g := range m.Guarantors {
		if g.Position >= 0 && g.Position < len(uids) {
			uids[g.Position] = g.GuarantorUID
		}
	}
	return &hirepurchase.Account{
		Number:        m.Number,
		CustomerUID:   m.CustomerUID,
		ProductID:     m.ProductID,
		GuarantorUIDs: uids,
		ContractID:    m.ContractID,
		SaleDate:      m.SaleDate,
		Status:        m.Status,
		Remarks:       m.Remarks,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Account entity.
// Guarantors are left empty; the repository writes links explicitly.
func (m *AccountModel) FromDomain(a *hirepurchase.Account) {
	m.Number = a.Number
	m.CustomerUID = a.CustomerUID
	m.ProductID = a.ProductID
	m.ContractID = a.ContractID
	m.SaleDate = a.SaleDate
	m.Status = a.Status
	m.Remarks = a.Remarks
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// AccountModelFromDomain creates a new persistence model from a domain Account entity.
func AccountModelFromDomain(a *hirepurchase.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// AccountGuarantorModel links an account to one of its guarantors
type AccountGuarantorModel struct {
	AccountNumber string `gorm:"type:varchar(20);primaryKey"`
	GuarantorUID  int64  `gorm:"column:guarantor_uid;primaryKey;autoIncrement:false;index"`
	Position      int    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccountGuarantorModel) TableName() string {
	return "account_guarantors"
}

// AccountGuarantorModels builds the link rows of an account in guarantor order
func AccountGuarantorModels(a *hirepurchase.Account) []AccountGuarantorModel {
	links := make([]AccountGuarantorModel, 0, len(a.GuarantorUIDs))
	for i, uid := range a.GuarantorUIDs {
		links = append(links, AccountGuarantorModel{
			AccountNumber: a.Number,
			GuarantorUID:  uid,
			Position:      i,
		})
	}
	return links
}
