package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type Balance struct {
	UserID    int64
	Balance   decimal.Decimal
	UpdatedAt time.Time
}
