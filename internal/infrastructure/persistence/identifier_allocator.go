package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sequenceTables names the table whose uid column a sequence feeds; used to seed
// a missing counter past identifiers that already exist
var sequenceTables = map[string]string{
	"customer":  models.CustomerModel{}.TableName(),
	"guarantor": models.GuarantorModel{}.TableName(),
}

// GormIdentifierAllocator allocates identifiers from the identifier_sequences table.
// It must run on the transaction that inserts the row using the identifier, so a
// rolled back insert also rolls back the allocation and no gaps appear.
type GormIdentifierAllocator struct {
	db *gorm.DB
}

// NewGormIdentifierAllocator creates a new GormIdentifierAllocator
func NewGormIdentifierAllocator(db *gorm.DB) *GormIdentifierAllocator {
	return &GormIdentifierAllocator{db: db}
}

// Next returns the next identifier of seq. The counter row is locked, then advanced
// with a compare-and-swap; losing the swap yields shared.ErrConcurrencyConflict.
func (a *GormIdentifierAllocator) Next(ctx context.Context, seq shared.Sequence) (int64, error) {
	db := a.db.WithContext(ctx)

	current, err := a.lockCounter(db, seq)
	if err != nil {
		return 0, err
	}

	next := current + 1
	result := db.Model(&models.IdentifierSequenceModel{}).
		Where("name = ? AND value = ?", seq.Name, current).
		Updates(map[string]any{
			"value":      next,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrConcurrencyConflict.WithMessage(fmt.Sprintf("sequence %s advanced concurrently", seq.Name))
	}
	return next, nil
}

// lockCounter reads the counter with SELECT ... FOR UPDATE, seeding it first when
// the sequence has never been used
func (a *GormIdentifierAllocator) lockCounter(db *gorm.DB, seq shared.Sequence) (int64, error) {
	var row models.IdentifierSequenceModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "name = ?", seq.Name).Error
	if err == nil {
		return row.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, translateError(err)
	}

	start, err := a.seedValue(db, seq)
	if err != nil {
		return 0, err
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.IdentifierSequenceModel{
		Name:      seq.Name,
		Value:     start,
		UpdatedAt: time.Now(),
	}).Error; err != nil {
		return 0, translateError(err)
	}

	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "name = ?", seq.Name).Error; err != nil {
		return 0, notFound(err)
	}
	return row.Value, nil
}

// seedValue returns the larger of the floor and the highest identifier in use
func (a *GormIdentifierAllocator) seedValue(db *gorm.DB, seq shared.Sequence) (int64, error) {
	table, ok := sequenceTables[seq.Name]
	if !ok {
		return seq.Floor, nil
	}
	var highest int64
	row := db.Table(table).Select("COALESCE(MAX(uid), 0)").Row()
	if err := row.Scan(&highest); err != nil {
		return 0, translateError(err)
	}
	if highest > seq.Floor {
		return highest, nil
	}
	return seq.Floor, nil
}

// Ensure GormIdentifierAllocator implements IdentifierAllocator
var _ shared.IdentifierAllocator = (*GormIdentifierAllocator)(nil)

// Seed returns the value a fresh counter for seq starts from: the larger of the
// floor and the highest identifier already stored
func (a *GormIdentifierAllocator) Seed(ctx context.Context, seq shared.Sequence) (int64, error) {
	return a.seedValue(a.db.WithContext(ctx), seq)
}
