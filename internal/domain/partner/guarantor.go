package partner

import (
	"strings"
	"time"

	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// GuarantorSequence is the identifier space for guarantors: 5000001, 5000002, ...
// It never overlaps the customer range.
var GuarantorSequence = shared.Sequence{Name: "guarantor", Floor: 5_000_000}

// GuarantorProfile holds the mutable fields of a guarantor
type GuarantorProfile struct {
	Name       string
	Phone      string
	Address    string
	Occupation Occupation
}

// Guarantor vouches for an account. A guarantor is never treated as a customer,
// even when the same person is recorded in both roles.
type Guarantor struct {
	UID int64
	GuarantorProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGuarantor creates a guarantor with an allocated identifier
func NewGuarantor(uid int64, profile GuarantorProfile) (*Guarantor, error) {
	if uid <= GuarantorSequence.Floor {
		return nil, shared.NewValidationError("INVALID_UID", "uid", "Guarantor uid is outside the guarantor range")
	}
	profile = profile.normalized()
	if err := profile.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Guarantor{
		UID:              uid,
		GuarantorProfile: profile,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// UpdateProfile replaces the mutable fields
func (g *Guarantor) UpdateProfile(profile GuarantorProfile) error {
	profile = profile.normalized()
	if err := profile.validate(); err != nil {
		return err
	}
	g.GuarantorProfile = profile
	g.UpdatedAt = time.Now()
	return nil
}

func (p GuarantorProfile) normalized() GuarantorProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	return p
}

func (p GuarantorProfile) validate() error {
	if p.Name == "" {
		return shared.NewValidationError("INVALID_NAME", "name", "Guarantor name cannot be empty")
	}
	if len(p.Name) > 100 {
		return shared.NewValidationError("INVALID_NAME", "name", "Guarantor name cannot exceed 100 characters")
	}
	if len(p.Phone) > 14 {
		return shared.NewValidationError("INVALID_PHONE", "phone", "Phone cannot exceed 14 characters")
	}
	if len(p.Address) > 500 {
		return shared.NewValidationError("INVALID_ADDRESS", "address", "Address cannot exceed 500 characters")
	}
	if p.Occupation != "" && !p.Occupation.IsValid() {
		return shared.NewValidationError("INVALID_OCCUPATION", "occupation", "Unknown occupation")
	}
	return nil
}
