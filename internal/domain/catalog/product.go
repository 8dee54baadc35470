package catalog

import (
	"strings"

	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// Category is the kind of goods a product belongs to
type Category string

const (
	CategoryTelevision     Category = "television"
	CategoryRefrigerator   Category = "refrigerator"
	CategoryDeepFreezer    Category = "deep_freezer"
	CategoryAirConditioner Category = "air_conditioner"
	CategoryWashingMachine Category = "washing_machine"
	CategoryMicrowaveOven  Category = "microwave_oven"
	CategorySewingMachine  Category = "sewing_machine"
	CategoryComputer       Category = "computer"
	CategoryOthers         Category = "others"
)

// IsValid reports whether the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryTelevision, CategoryRefrigerator, CategoryDeepFreezer, CategoryAirConditioner,
		CategoryWashingMachine, CategoryMicrowaveOven, CategorySewingMachine, CategoryComputer,
		CategoryOthers:
		return true
	}
	return false
}

// Product is a sellable model. The model designation is unique across all categories,
// compared case-insensitively.
type Product struct {
	shared.BaseEntity
	Category Category
	Model    string
}

// NewProduct creates a new product
func NewProduct(category Category, model string) (*Product, error) {
	if !category.IsValid() {
		return nil, shared.NewValidationError("INVALID_CATEGORY", "category", "Unknown product category")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, shared.NewValidationError("INVALID_MODEL", "model", "Model cannot be empty")
	}
	if len(model) > 100 {
		return nil, shared.NewValidationError("INVALID_MODEL", "model", "Model cannot exceed 100 characters")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Category:   category,
		Model:      model,
	}, nil
}

// ModelKey returns the form used for uniqueness checks
func ModelKey(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
