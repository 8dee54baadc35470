package persistence

import (
	"context"
	"testing"

	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCustomerRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find by uid", func(t *testing.T) {
		db := newTestDatabase(t)
		repo := NewGormCustomerRepository(db.DB)
		seedCustomer(t, db.DB, 1_000_001)

		found, err := repo.FindByUID(ctx, 1_000_001)
		require.NoError(t, err)
		assert.Equal(t, "Rahim Uddin", found.Name)
		assert.Equal(t, "01700000000", found.Phone)

		exists, err := repo.ExistsByUID(ctx, 1_000_001)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing customer is not found", func(t *testing.T) {
		db := newTestDatabase(t)
		_, err := NewGormCustomerRepository(db.DB).FindByUID(ctx, 1_000_999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate uid is reported as a concurrency conflict", func(t *testing.T) {
		db := newTestDatabase(t)
		seedCustomer(t, db.DB, 1_000_001)

		c, err := partner.NewCustomer(1_000_001, partner.CustomerProfile{Name: "Other", Phone: "1", Address: "x"})
		require.NoError(t, err)
		err = NewGormCustomerRepository(db.DB).Create(ctx, c)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("update keeps uid and changes profile", func(t *testing.T) {
		db := newTestDatabase(t)
		repo := NewGormCustomerRepository(db.DB)
		c := seedCustomer(t, db.DB, 1_000_001)

		require.NoError(t, c.UpdateProfile(partner.CustomerProfile{Name: "Rahim U.", Phone: "01800000000", Address: "Mill Road"}))
		require.NoError(t, repo.Update(ctx, c))

		found, err := repo.FindByUID(ctx, 1_000_001)
		require.NoError(t, err)
		assert.Equal(t, "Rahim U.", found.Name)
		assert.Equal(t, "Mill Road", found.Address)
	})

	t.Run("search and count", func(t *testing.T) {
		db := newTestDatabase(t)
		repo := NewGormCustomerRepository(db.DB)
		seedCustomer(t, db.DB, 1_000_001)
		other, err := partner.NewCustomer(1_000_002, partner.CustomerProfile{Name: "Jamal", Phone: "019", Address: "x"})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, other))

		filter := shared.DefaultFilter()
		filter.Search = "rahim"
		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, int64(1_000_001), found[0].UID)

		total, err := repo.Count(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestGormGuarantorRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("find by uids", func(t *testing.T) {
		db := newTestDatabase(t)
		repo := NewGormGuarantorRepository(db.DB)
		seedGuarantor(t, db.DB, 5_000_001, "Karim")
		seedGuarantor(t, db.DB, 5_000_002, "Salam")

		found, err := repo.FindByUIDs(ctx, []int64{5_000_002, 5_000_001, 5_000_009})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, int64(5_000_001), found[0].UID)

		empty, err := repo.FindByUIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("update missing guarantor", func(t *testing.T) {
		db := newTestDatabase(t)
		g, err := partner.NewGuarantor(5_000_001, partner.GuarantorProfile{Name: "Karim"})
		require.NoError(t, err)
		err = NewGormGuarantorRepository(db.DB).Update(ctx, g)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
