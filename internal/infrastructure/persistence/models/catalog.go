package models

import (
	"github.com/hirepurchase/ledger/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
// ModelKey holds the lower-cased model designation and carries the unique index.
type ProductModel struct {
	BaseModel
	Category catalog.Category `gorm:"type:varchar(30);not null;index"`
	Model    string           `gorm:"type:varchar(100);not null"`
	ModelKey string           `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		Category:   m.Category,
		Model:      m.Model,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Category = p.Category
	m.Model = p.Model
	m.ModelKey = catalog.ModelKey(p.Model)
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
