// Package domain holds the shop's core types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a catalog entry.
type Item struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImgPath     string          `json:"img_path"`
	Price       decimal.Decimal `json:"price"`
}

// PricedLine is a cart line joined with the current item data. It is never persisted.
type PricedLine struct {
	ItemID      int64           `json:"item_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImgPath     string          `json:"img_path"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int32           `json:"quantity"`
}

// Sum returns unit price times quantity.
func (l PricedLine) Sum() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Total sums the lines.
func Total(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Sum())
	}
	return total
}

// Order is an immutable paid order.
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	TotalSum  decimal.Decimal `json:"total_sum"`
	Lines     []OrderLine     `json:"lines"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderLine is a snapshot of an item at the time it was bought.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImgPath     string          `json:"img_path"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int32           `json:"quantity"`
}

// NewOrder builds an unsaved order from a drained cart.
func NewOrder(userID int64, lines []PricedLine) *Order {
	orderLines := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, OrderLine{
			Title:       l.Title,
			Description: l.Description,
			ImgPath:     l.ImgPath,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
		})
	}
	return &Order{
		UserID:   userID,
		TotalSum: Total(lines),
		Lines:    orderLines,
	}
}
