package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hirepurchase/ledger/internal/domain/catalog"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDatabase opens a migrated in-memory sqlite database
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMockGormDB creates a postgres-dialect GORM handle over sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedCustomer(t *testing.T, db *gorm.DB, uid int64) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(uid, partner.CustomerProfile{
		Name:    "Rahim Uddin",
		Phone:   "01700000000",
		Address: "Station Road",
	})
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Create(context.Background(), c))
	return c
}

func seedGuarantor(t *testing.T, db *gorm.DB, uid int64, name string) *partner.Guarantor {
	t.Helper()
	g, err := partner.NewGuarantor(uid, partner.GuarantorProfile{Name: name})
	require.NoError(t, err)
	require.NoError(t, NewGormGuarantorRepository(db).Create(context.Background(), g))
	return g
}

func seedProduct(t *testing.T, db *gorm.DB, model string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.CategoryTelevision, model)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(context.Background(), p))
	return p
}

func seedAccount(t *testing.T, db *gorm.DB, number string) *hirepurchase.Account {
	t.Helper()
	c := seedCustomer(t, db, 1_000_001)
	g1 := seedGuarantor(t, db, 5_000_001, "Karim")
	g2 := seedGuarantor(t, db, 5_000_002, "Salam")
	p := seedProduct(t, db, "LED-"+number)
	a, err := hirepurchase.NewAccount(number, c.UID, p.ID, []int64{g1.UID, g2.UID}, time.Now(), "")
	require.NoError(t, err)
	require.NoError(t, NewGormAccountRepository(db).Create(context.Background(), a))
	return a
}

func newTestContract(t *testing.T, number string) *hirepurchase.Contract {
	t.Helper()
	c, err := hirepurchase.NewContract(number, hirepurchase.Terms{
		CashValue:      decimal.NewFromInt(50000),
		HireValue:      decimal.NewFromInt(60000),
		DownPayment:    decimal.NewFromInt(10000),
		MonthlyPayment: decimal.NewFromInt(5000),
		Length:         10,
	}, true)
	require.NoError(t, err)
	return c
}

func newTestPayment(t *testing.T, contractID uuid.UUID, amount int64, receipt string, date time.Time) *hirepurchase.Payment {
	t.Helper()
	p, err := hirepurchase.NewPayment(contractID, decimal.NewFromInt(amount), date, receipt, "")
	require.NoError(t, err)
	return p
}
