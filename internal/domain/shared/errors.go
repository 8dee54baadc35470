package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError so callers can map it to their own response codes
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindNotFound       ErrorKind = "not_found"
	KindCapacity       ErrorKind = "capacity"
	KindConcurrency    ErrorKind = "concurrency"
	KindImmutableField ErrorKind = "immutable_field"
	KindInternal       ErrorKind = "internal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Entity  string    `json:"entity,omitempty"`
	ID      string    `json:"id,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so a detailed error still satisfies
// errors.Is against the package sentinel it was derived from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	c := *e
	c.Message = message
	return &c
}

// WithField returns a copy of the error naming the offending field
func (e *DomainError) WithField(field string) *DomainError {
	c := *e
	c.Field = field
	return &c
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// NewKindError creates a domain error of the given kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error naming the offending field
func NewValidationError(code, field, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// NewNotFoundError creates a not-found error naming the missing entity and its identifier
func NewNotFoundError(entity string, id any) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    ErrNotFound.Code,
		Message: fmt.Sprintf("%s %v not found", entity, id),
		Entity:  entity,
		ID:      fmt.Sprint(id),
	}
}

// KindOf returns the kind of the first DomainError in err's chain, or KindInternal
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common domain errors
var (
	ErrNotFound            = NewKindError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewKindError(KindConflict, "ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewKindError(KindConcurrency, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// Ledger errors
var (
	ErrInvalidIdentifierFormat = NewDomainError("INVALID_IDENTIFIER_FORMAT", "Identifier does not match the required format")
	ErrInvalidContractTerms    = NewDomainError("INVALID_CONTRACT_TERMS", "Contract terms are invalid")
	ErrInvalidAmount           = NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrDuplicateReceipt        = NewKindError(KindConflict, "DUPLICATE_RECEIPT", "Receipt identifier already used")
	ErrDuplicateAccount        = NewKindError(KindConflict, "DUPLICATE_ACCOUNT", "Account identifier already used")
	ErrDuplicateModel          = NewKindError(KindConflict, "DUPLICATE_MODEL", "Product model already exists")
	ErrContractAttached        = NewKindError(KindConflict, "CONTRACT_ALREADY_ATTACHED", "Account already has a contract")
	ErrBalanceExceeded         = NewKindError(KindCapacity, "BALANCE_EXCEEDED", "Payment exceeds the remaining balance")
	ErrConcurrentAllocation    = NewKindError(KindConcurrency, "CONCURRENT_ALLOCATION", "Identifier allocation kept colliding with concurrent requests")
	ErrImmutableIdentifier     = NewKindError(KindImmutableField, "IMMUTABLE_IDENTIFIER", "Identifier cannot be changed once set")
)
