package hirepurchase

import (
	"regexp"
	"strings"

	"github.com/hirepurchase/ledger/internal/domain/shared"
)

// accountNumberPattern is three letters, a dash, the letter H and one or more digits
var accountNumberPattern = regexp.MustCompile(`^[A-Za-z]{3}-[Hh][0-9]+$`)

// ValidateAccountNumber checks a human-entered account number and returns its
// canonical upper-case form. "abc-h12" becomes "ABC-H12"; "AB-H12" and "ABC-12" are rejected.
func ValidateAccountNumber(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !accountNumberPattern.MatchString(trimmed) {
		return "", shared.ErrInvalidIdentifierFormat.
			WithMessage("Account number must look like ABC-H123").
			WithField("number")
	}
	return strings.ToUpper(trimmed), nil
}
