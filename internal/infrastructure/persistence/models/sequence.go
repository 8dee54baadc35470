package models

import "time"

// IdentifierSequenceModel stores the last identifier handed out for a sequence
type IdentifierSequenceModel struct {
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	Value     int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IdentifierSequenceModel) TableName() string {
	return "identifier_sequences"
}
