// Package store provides persistence for the catalog, carts and orders.
package store

import (
	"context"

	"github.com/abgdnv/gomarket/shop_service/internal/domain"
)

// CartStore keeps the cart lines of every user. All mutations are atomic per (user, item).
type CartStore interface {
	// AddOrIncrement inserts a line with quantity 1 or increments the existing one.
	// Returns ErrItemNotFound if the item does not exist.
	AddOrIncrement(ctx context.Context, userID, itemID int64) error

	// DecrementOrRemove decrements the line, deleting it when the quantity was 1.
	// A missing line is a no-op.
	DecrementOrRemove(ctx context.Context, userID, itemID int64) error

	// Remove deletes the line and returns the number of deleted rows.
	Remove(ctx context.Context, userID, itemID int64) (int64, error)

	// ListForUser returns the user's lines joined with current item data, in insertion order.
	ListForUser(ctx context.Context, userID int64) ([]domain.PricedLine, error)

	// Clear deletes every line of the user. Clearing an empty cart succeeds.
	Clear(ctx context.Context, userID int64) error

	// CountInCart returns the quantity of the item in the user's cart, 0 when absent.
	CountInCart(ctx context.Context, userID, itemID int64) (int32, error)
}

// CatalogStore reads catalog items.
type CatalogStore interface {
	// GetItem returns ErrItemNotFound if no item exists with the given ID.
	GetItem(ctx context.Context, itemID int64) (*domain.Item, error)
}

// OrderStore persists paid orders. Orders are never updated.
type OrderStore interface {
	// Save writes the order and its lines in one transaction and returns it with generated ids and creation time.
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// ListForUser returns the user's orders with lines, oldest first.
	ListForUser(ctx context.Context, userID int64) ([]domain.Order, error)

	// GetByIDForUser returns ErrOrderNotFound if the order does not exist or belongs to another user.
	GetByIDForUser(ctx context.Context, orderID, userID int64) (*domain.Order, error)
}
