package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormContractRepository_FindByIDForUpdate(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	c := newTestContract(t, "ABC-H1")
	rows := sqlmock.NewRows([]string{"id", "version", "account_number", "cash_value", "hire_value", "down_payment", "monthly_payment", "length", "cash_balance", "hire_balance"}).
		AddRow(c.ID, 3, "ABC-H1", "50000", "60000", "10000", "5000", 10, "40000", "50000")

	mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE id = \$1 .*FOR UPDATE`).
		WithArgs(c.ID, 1).
		WillReturnRows(rows)

	found, err := NewGormContractRepository(gormDB).FindByIDForUpdate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Version)
	assert.Equal(t, "50000", found.HireBalance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormContractRepository_SaveWithLock(t *testing.T) {
	t.Run("advances version when the row matches", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		c := newTestContract(t, "ABC-H1")
		mock.ExpectExec(`UPDATE "contracts" SET .*"version"=version \+ 1.*WHERE .*id = .*version = `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewGormContractRepository(gormDB).SaveWithLock(context.Background(), c))
		assert.Equal(t, 2, c.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row is a conflict", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		c := newTestContract(t, "ABC-H1")
		mock.ExpectExec(`UPDATE "contracts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewGormContractRepository(gormDB).SaveWithLock(context.Background(), c)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, c.Version)
	})

	t.Run("serialization failure is a conflict", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		c := newTestContract(t, "ABC-H1")
		mock.ExpectExec(`UPDATE "contracts" SET`).
			WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})

		err := NewGormContractRepository(gormDB).SaveWithLock(context.Background(), c)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormTransactionScope_SerializableOnPostgres(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "contracts" SET`).
		WillReturnError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	mock.ExpectRollback()

	scope := NewGormTransactionScope(gormDB)
	err := scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		return repos.Contracts().SaveWithLock(context.Background(), newTestContract(t, "ABC-H1"))
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", errors.New("database is locked"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.conflict, errors.Is(translateError(tt.err), shared.ErrConcurrencyConflict))
		})
	}

	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, notFound(gorm.ErrRecordNotFound), shared.ErrNotFound)
}
