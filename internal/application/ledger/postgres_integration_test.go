package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/infrastructure/config"
	"github.com/hirepurchase/ledger/internal/infrastructure/migration"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// newPostgresCore starts a PostgreSQL container, applies the embedded migrations
// and builds a Core over it
func newPostgresCore(t *testing.T) *Core {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("hpledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "postgres",
		DBName:          "hpledger_test",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
		LogLevel:        "silent",
	}

	log := zaptest.NewLogger(t)
	m, err := migration.NewFromURL(cfg.DSN(), "", log)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	db, err := persistence.NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewCore(persistence.NewGormTransactionScope(db.DB), CoreOptions{
		Policy:  DefaultPolicy(),
		Retrier: unitofwork.NewRetrier(10, 5*time.Millisecond),
		Logger:  log,
	})
}

func TestPostgres_ConcurrentPaymentsDrainBalance(t *testing.T) {
	core := newPostgresCore(t)
	ctx := context.Background()

	contract := openContract(t, core, "PGS-H1", TermsRequest{
		CashValue:      dec(3000),
		HireValue:      dec(3000),
		DownPayment:    dec(1000),
		MonthlyPayment: dec(1000),
		Length:         2,
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = core.RecordPayment(ctx, contract.ID, dec(1000), day(i+1), fmt.Sprintf("PG-%d", i))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	balance, err := core.GetContractBalance(ctx, contract.ID)
	require.NoError(t, err)
	assert.True(t, balance.HireBalance.IsZero())
	assert.True(t, balance.CashBalance.IsZero())
}

func TestPostgres_ContentionNeverLosesAnUpdate(t *testing.T) {
	core := newPostgresCore(t)
	ctx := context.Background()

	contract := openContract(t, core, "PGS-H2", scenarioTerms())

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := core.RecordPayment(ctx, contract.ID, dec(500), day(i+1), fmt.Sprintf("PGC-%d", i)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Positive(t, succeeded)
	history, err := core.GetPaymentHistory(ctx, contract.ID)
	require.NoError(t, err)
	assert.Len(t, history, succeeded)

	audit, err := core.Payments.AuditContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.False(t, audit.Drifted)
	assert.True(t, audit.StoredHire.Equal(dec(50000).Sub(dec(int64(500*succeeded)))))
}

func TestPostgres_ConcurrentAllocationsAreDistinct(t *testing.T) {
	core := newPostgresCore(t)
	ctx := context.Background()

	const n = 10
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = core.AllocateCustomerID(ctx)
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Greater(t, ids[i], int64(1_000_000))
		assert.False(t, seen[ids[i]], "identifier %d allocated twice", ids[i])
		seen[ids[i]] = true
	}
}
