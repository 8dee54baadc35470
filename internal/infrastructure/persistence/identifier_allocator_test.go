package persistence

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormIdentifierAllocator_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("starts right above the floor", func(t *testing.T) {
		db := newTestDatabase(t)
		alloc := NewGormIdentifierAllocator(db.DB)

		first, err := alloc.Next(ctx, partner.CustomerSequence)
		require.NoError(t, err)
		second, err := alloc.Next(ctx, partner.CustomerSequence)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), first)
		assert.Equal(t, int64(1_000_002), second)
	})

	t.Run("sequences are independent", func(t *testing.T) {
		db := newTestDatabase(t)
		alloc := NewGormIdentifierAllocator(db.DB)

		c, err := alloc.Next(ctx, partner.CustomerSequence)
		require.NoError(t, err)
		g, err := alloc.Next(ctx, partner.GuarantorSequence)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), c)
		assert.Equal(t, int64(5_000_001), g)
	})

	t.Run("seeds past identifiers already in use", func(t *testing.T) {
		db := newTestDatabase(t)
		seedCustomer(t, db.DB, 1_000_050)

		next, err := NewGormIdentifierAllocator(db.DB).Next(ctx, partner.CustomerSequence)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_051), next)
	})

	t.Run("unknown sequence starts at its floor", func(t *testing.T) {
		db := newTestDatabase(t)
		next, err := NewGormIdentifierAllocator(db.DB).Next(ctx, shared.Sequence{Name: "voucher", Floor: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(11), next)
	})

	t.Run("rolled back allocation is handed out again", func(t *testing.T) {
		db := newTestDatabase(t)
		scope := NewGormTransactionScope(db.DB)

		err := scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			_, err := repos.Sequences().Next(ctx, partner.CustomerSequence)
			require.NoError(t, err)
			return shared.ErrInvalidInput
		})
		require.ErrorIs(t, err, shared.ErrInvalidInput)

		var uid int64
		require.NoError(t, scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			var err error
			uid, err = repos.Sequences().Next(ctx, partner.CustomerSequence)
			return err
		}))
		assert.Equal(t, int64(1_000_001), uid)
	})
}

func TestGormIdentifierAllocator_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	scope := NewGormTransactionScope(db.DB)
	retrier := unitofwork.NewRetrier(10, time.Millisecond)

	const workers = 20
	var (
		mu   sync.Mutex
		uids []int64
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var uid int64
			err := retrier.Do(ctx, func(ctx context.Context) error {
				return scope.Execute(ctx, func(repos unitofwork.Repositories) error {
					var err error
					uid, err = repos.Sequences().Next(ctx, partner.CustomerSequence)
					if err != nil {
						return err
					}
					c, err := partner.NewCustomer(uid, partner.CustomerProfile{Name: "n", Phone: "1", Address: "a"})
					if err != nil {
						return err
					}
					return repos.Customers().Create(ctx, c)
				})
			})
			if assert.NoError(t, err) {
				mu.Lock()
				uids = append(uids, uid)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, uids, workers)
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	for i, uid := range uids {
		assert.Equal(t, int64(1_000_001+i), uid)
	}
}

func TestGormIdentifierAllocator_Seed(t *testing.T) {
	db := newTestDatabase(t)
	alloc := NewGormIdentifierAllocator(db.DB)

	v, err := alloc.Seed(context.Background(), partner.GuarantorSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), v)

	seedGuarantor(t, db.DB, 5_000_077, "Karim")
	v, err = alloc.Seed(context.Background(), partner.GuarantorSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_077), v)
}
