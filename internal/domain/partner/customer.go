package partner

import (
	"strings"
	"time"

	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// Gender of a customer
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// GuardianType names the relation of the guardian recorded for a customer
type GuardianType string

const (
	GuardianFather  GuardianType = "father"
	GuardianHusband GuardianType = "husband"
)

// Occupation of a customer or guarantor
type Occupation string

const (
	OccupationJob         Occupation = "job"
	OccupationGovtJob     Occupation = "govt_job"
	OccupationBusiness    Occupation = "business"
	OccupationStudent     Occupation = "student"
	OccupationHousewife   Occupation = "housewife"
	OccupationTeacher     Occupation = "teacher"
	OccupationDoctor      Occupation = "doctor"
	OccupationPlumber     Occupation = "plumber"
	OccupationTechnician  Occupation = "technician"
	OccupationElectrician Occupation = "electrician"
	OccupationOthers      Occupation = "others"
)

// IsValid reports whether the occupation is one of the known values
func (o Occupation) IsValid() bool {
	switch o {
	case OccupationJob, OccupationGovtJob, OccupationBusiness, OccupationStudent,
		OccupationHousewife, OccupationTeacher, OccupationDoctor, OccupationPlumber,
		OccupationTechnician, OccupationElectrician, OccupationOthers:
		return true
	}
	return false
}

// CustomerSequence is the identifier space for customers: 1000001, 1000002, ...
var CustomerSequence = shared.Sequence{Name: "customer", Floor: 1_000_000}

// CustomerProfile holds the non-identifying, mutable fields of a customer
type CustomerProfile struct {
	Name         string
	Age          *int
	Gender       Gender
	Phone        string
	Occupation   Occupation
	Address      string
	LocationMark string
	GuardianType GuardianType
	GuardianName string
}

// Customer is the buyer on an account. The UID is allocator-assigned and never changes.
type Customer struct {
	UID int64
	CustomerProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer creates a customer with an allocated identifier
func NewCustomer(uid int64, profile CustomerProfile) (*Customer, error) {
	if uid <= CustomerSequence.Floor {
		return nil, shared.NewValidationError("INVALID_UID", "uid", "Customer uid is outside the customer range")
	}
	profile = profile.normalized()
	if err := profile.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Customer{
		UID:             uid,
		CustomerProfile: profile,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// UpdateProfile replaces the mutable fields; the UID is untouched
func (c *Customer) UpdateProfile(profile CustomerProfile) error {
	profile = profile.normalized()
	if err := profile.validate(); err != nil {
		return err
	}
	c.CustomerProfile = profile
	c.UpdatedAt = time.Now()
	return nil
}

func (p CustomerProfile) normalized() CustomerProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	p.LocationMark = strings.TrimSpace(p.LocationMark)
	p.GuardianName = strings.TrimSpace(p.GuardianName)
	return p
}

func (p CustomerProfile) validate() error {
	if p.Name == "" {
		return shared.NewValidationError("INVALID_NAME", "name", "Customer name cannot be empty")
	}
	if len(p.Name) > 100 {
		return shared.NewValidationError("INVALID_NAME", "name", "Customer name cannot exceed 100 characters")
	}
	if p.Age != nil && *p.Age < 0 {
		return shared.NewValidationError("INVALID_AGE", "age", "Age cannot be negative")
	}
	if p.Gender != "" && p.Gender != GenderMale && p.Gender != GenderFemale {
		return shared.NewValidationError("INVALID_GENDER", "gender", "Gender must be male or female")
	}
	if p.Phone == "" {
		return shared.NewValidationError("INVALID_PHONE", "phone", "Phone cannot be empty")
	}
	if len(p.Phone) > 14 {
		return shared.NewValidationError("INVALID_PHONE", "phone", "Phone cannot exceed 14 characters")
	}
	if p.Occupation != "" && !p.Occupation.IsValid() {
		return shared.NewValidationError("INVALID_OCCUPATION", "occupation", "Unknown occupation")
	}
	if p.Address == "" {
		return shared.NewValidationError("INVALID_ADDRESS", "address", "Address cannot be empty")
	}
	if len(p.Address) > 500 {
		return shared.NewValidationError("INVALID_ADDRESS", "address", "Address cannot exceed 500 characters")
	}
	if len(p.LocationMark) > 500 {
		return shared.NewValidationError("INVALID_LOCATION_MARK", "location_mark", "Location mark cannot exceed 500 characters")
	}
	if p.GuardianType != "" && p.GuardianType != GuardianFather && p.GuardianType != GuardianHusband {
		return shared.NewValidationError("INVALID_GUARDIAN_TYPE", "guardian_type", "Guardian type must be father or husband")
	}
	if len(p.GuardianName) > 100 {
		return shared.NewValidationError("INVALID_GUARDIAN_NAME", "guardian_name", "Guardian name cannot exceed 100 characters")
	}
	return nil
}
