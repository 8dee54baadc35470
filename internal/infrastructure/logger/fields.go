package logger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Contract tags an entry with a contract identifier
func Contract(id uuid.UUID) zap.Field {
	return zap.String("contract_id", id.String())
}

// Account tags an entry with an account number
func Account(number string) zap.Field {
	return zap.String("account_number", number)
}

// Amount tags an entry with a money amount in its exact decimal form
func Amount(key string, v decimal.Decimal) zap.Field {
	return zap.String(key, v.String())
}
