package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"; DROP TABLE accounts", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	t.Run("accepts whitelisted field", func(t *testing.T) {
		assert.Equal(t, "sale_date", ValidateSortField("sale_date", AccountSortFields, "created_at"))
	})

	t.Run("falls back for unknown field", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("hire_balance; --", AccountSortFields, "created_at"))
	})

	t.Run("falls back for empty field", func(t *testing.T) {
		assert.Equal(t, "uid", ValidateSortField("  ", CustomerSortFields, "uid"))
	})
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "model ASC", orderClause("model", "asc", ProductSortFields, "created_at"))
	assert.Equal(t, "created_at DESC", orderClause("price", "", ProductSortFields, "created_at"))
}
