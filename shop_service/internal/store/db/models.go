package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          int64
	Title       string
	Description string
	ImgPath     string
	Price       decimal.Decimal
}

type Order struct {
	ID        int64
	UserID    int64
	TotalSum  decimal.Decimal
	CreatedAt time.Time
}

type OrderPosition struct {
	ID          int64
	OrderID     int64
	Title       string
	Description string
	ImgPath     string
	Price       decimal.Decimal
	Count       int32
}
