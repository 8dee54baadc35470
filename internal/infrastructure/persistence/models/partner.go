package models

import (
	"time"

	"github.com/hirepurchase/ledger/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity.
// The uid is allocated by the ledger, never by the database.
type CustomerModel struct {
	UID          int64                `gorm:"column:uid;primaryKey;autoIncrement:false"`
	Name         string               `gorm:"type:varchar(100);not null"`
	Age          *int                 `gorm:"column:age"`
	Gender       partner.Gender       `gorm:"type:varchar(10)"`
	Phone        string               `gorm:"type:varchar(14);not null;index"`
	Occupation   partner.Occupation   `gorm:"type:varchar(20)"`
	Address      string               `gorm:"type:varchar(500);not null"`
	LocationMark string               `gorm:"type:varchar(500)"`
	GuardianType partner.GuardianType `gorm:"type:varchar(10)"`
	GuardianName string               `gorm:"type:varchar(100)"`
	CreatedAt    time.Time            `gorm:"not null"`
	UpdatedAt    time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		UID: m.UID,
		CustomerProfile: partner.CustomerProfile{
			Name:         m.Name,
			Age:          m.Age,
			Gender:       m.Gender,
			Phone:        m.Phone,
			Occupation:   m.Occupation,
			Address:      m.Address,
			LocationMark: m.LocationMark,
			GuardianType: m.GuardianType,
			GuardianName: m.GuardianName,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.UID = c.UID
	m.Name = c.Name
	m.Age = c.Age
	m.Gender = c.Gender
	m.Phone = c.Phone
	m.Occupation = c.Occupation
	m.Address = c.Address
	m.LocationMark = c.LocationMark
	m.GuardianType = c.GuardianType
	m.GuardianName = c.GuardianName
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// GuarantorModel is the persistence model for the Guarantor domain entity.
type GuarantorModel struct {
	UID        int64              `gorm:"column:uid;primaryKey;autoIncrement:false"`
	Name       string             `gorm:"type:varchar(100);not null"`
	Phone      string             `gorm:"type:varchar(14)"`
	Address    string             `gorm:"type:varchar(500)"`
	Occupation partner.Occupation `gorm:"type:varchar(20)"`
	CreatedAt  time.Time          `gorm:"not null"`
	UpdatedAt  time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GuarantorModel) TableName() string {
	return "guarantors"
}

// ToDomain converts the persistence model to a domain Guarantor entity.
func (m *GuarantorModel) ToDomain() *partner.Guarantor {
	return &partner.Guarantor{
		UID: m.UID,
		GuarantorProfile: partner.GuarantorProfile{
			Name:       m.Name,
			Phone:      m.Phone,
			Address:    m.Address,
			Occupation: m.Occupation,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Guarantor entity.
func (m *GuarantorModel) FromDomain(g *partner.Guarantor) {
	m.UID = g.UID
	m.Name = g.Name
	m.Phone = g.Phone
	m.Address = g.Address
	m.Occupation = g.Occupation
	m.CreatedAt = g.CreatedAt
	m.UpdatedAt = g.UpdatedAt
}

// GuarantorModelFromDomain creates a new persistence model from a domain Guarantor entity.
func GuarantorModelFromDomain(g *partner.Guarantor) *GuarantorModel {
	m := &GuarantorModel{}
	m.FromDomain(g)
	return m
}
