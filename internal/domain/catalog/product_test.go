package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product", func(t *testing.T) {
		p, err := NewProduct(CategoryTelevision, "  Walton W32D120 ")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, "Walton W32D120", p.Model)
		assert.Equal(t, CategoryTelevision, p.Category)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := NewProduct("bicycle", "X1")
		assert.Error(t, err)
	})

	t.Run("rejects empty model", func(t *testing.T) {
		_, err := NewProduct(CategoryComputer, "   ")
		assert.Error(t, err)
	})
}

func TestModelKey(t *testing.T) {
	assert.Equal(t, ModelKey("Walton W32D120"), ModelKey(" walton w32d120"))
}
