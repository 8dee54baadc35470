package partner

import (
	"time"

	"github.com/hirepurchase/ledger/internal/domain/partner"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer.
// The uid is allocated by the ledger and is never part of the request.
type CreateCustomerRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Age          *int   `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender       string `json:"gender" validate:"omitempty,oneof=male female"`
	Phone        string `json:"phone" validate:"required,max=14"`
	Occupation   string `json:"occupation" validate:"omitempty,oneof=job govt_job business student housewife teacher doctor plumber technician electrician others"`
	Address      string `json:"address" validate:"required,max=500"`
	LocationMark string `json:"location_mark" validate:"max=500"`
	GuardianType string `json:"guardian_type" validate:"omitempty,oneof=father husband"`
	GuardianName string `json:"guardian_name" validate:"max=100"`
}

// UpdateCustomerRequest replaces the non-identifying fields of a customer
type UpdateCustomerRequest CreateCustomerRequest

func (r CreateCustomerRequest) profile() partner.CustomerProfile {
	return partner.CustomerProfile{
		Name:         r.Name,
		Age:          r.Age,
		Gender:       partner.Gender(r.Gender),
		Phone:        r.Phone,
		Occupation:   partner.Occupation(r.Occupation),
		Address:      r.Address,
		LocationMark: r.LocationMark,
		GuardianType: partner.GuardianType(r.GuardianType),
		GuardianName: r.GuardianName,
	}
}

// CustomerResponse represents a customer
type CustomerResponse struct {
	UID          int64     `json:"uid"`
	Name         string    `json:"name"`
	Age          *int      `json:"age,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Phone        string    `json:"phone"`
	Occupation   string    `json:"occupation,omitempty"`
	Address      string    `json:"address"`
	LocationMark string    `json:"location_mark,omitempty"`
	GuardianType string    `json:"guardian_type,omitempty"`
	GuardianName string    `json:"guardian_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomerListFilter represents filter options for listing customers
type CustomerListFilter struct {
	Search     string `json:"search"`
	Occupation string `json:"occupation" validate:"omitempty,oneof=job govt_job business student housewife teacher doctor plumber technician electrician others"`
	Gender     string `json:"gender" validate:"omitempty,oneof=male female"`
	Phone      string `json:"phone"`
	Page       int    `json:"page" validate:"gte=0"`
	PageSize   int    `json:"page_size" validate:"gte=0,lte=100"`
	OrderBy    string `json:"order_by"`
	OrderDir   string `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		UID:          c.UID,
		Name:         c.Name,
		Age:          c.Age,
		Gender:       string(c.Gender),
		Phone:        c.Phone,
		Occupation:   string(c.Occupation),
		Address:      c.Address,
		LocationMark: c.LocationMark,
		GuardianType: string(c.GuardianType),
		GuardianName: c.GuardianName,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}

// =============================================================================
// Guarantor DTOs
// =============================================================================

// CreateGuarantorRequest represents a request to create a new guarantor
type CreateGuarantorRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"max=14"`
	Address    string `json:"address" validate:"max=500"`
	Occupation string `json:"occupation" validate:"omitempty,oneof=job govt_job business student housewife teacher doctor plumber technician electrician others"`
}

// UpdateGuarantorRequest replaces the mutable fields of a guarantor
type UpdateGuarantorRequest CreateGuarantorRequest

func (r CreateGuarantorRequest) profile() partner.GuarantorProfile {
	return partner.GuarantorProfile{
		Name:       r.Name,
		Phone:      r.Phone,
		Address:    r.Address,
		Occupation: partner.Occupation(r.Occupation),
	}
}

// GuarantorResponse represents a guarantor
type GuarantorResponse struct {
	UID        int64     `json:"uid"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Occupation string    `json:"occupation,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GuarantorListFilter represents filter options for listing guarantors
type GuarantorListFilter struct {
	Search     string `json:"search"`
	Occupation string `json:"occupation" validate:"omitempty,oneof=job govt_job business student housewife teacher doctor plumber technician electrician others"`
	Page       int    `json:"page" validate:"gte=0"`
	PageSize   int    `json:"page_size" validate:"gte=0,lte=100"`
	OrderBy    string `json:"order_by"`
	OrderDir   string `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// ToGuarantorResponse converts a domain Guarantor to GuarantorResponse
func ToGuarantorResponse(g *partner.Guarantor) GuarantorResponse {
	return GuarantorResponse{
		UID:        g.UID,
		Name:       g.Name,
		Phone:      g.Phone,
		Address:    g.Address,
		Occupation: string(g.Occupation),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

// ToGuarantorResponses converts a slice of domain Guarantors
func ToGuarantorResponses(guarantors []partner.Guarantor) []GuarantorResponse {
	responses := make([]GuarantorResponse, len(guarantors))
	for i := range guarantors {
		responses[i] = ToGuarantorResponse(&guarantors[i])
	}
	return responses
}
