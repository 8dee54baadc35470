package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Category string `json:"category" validate:"required,oneof=television refrigerator deep_freezer air_conditioner washing_machine microwave_oven sewing_machine computer others"`
	Model    string `json:"model" validate:"required,max=100"`
}

// ProductResponse represents a product
type ProductResponse struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductListFilter represents filter options for listing products
type ProductListFilter struct {
	Search   string `json:"search"`
	Category string `json:"category" validate:"omitempty,oneof=television refrigerator deep_freezer air_conditioner washing_machine microwave_oven sewing_machine computer others"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"page_size" validate:"gte=0,lte=100"`
	OrderBy  string `json:"order_by"`
	OrderDir string `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Category:  string(p.Category),
		Model:     p.Model,
		CreatedAt: p.CreatedAt,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
