package service

import (
	"context"

	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	"github.com/abgdnv/gomarket/shop_service/internal/store"
)

// OrderService reads the user's paid orders.
type OrderService interface {
	// FindOrdersByUserID returns the user's orders, oldest first. Returns an empty slice if there are none.
	FindOrdersByUserID(ctx context.Context, userID int64) ([]domain.Order, error)

	// FindByID returns ErrOrderNotFound if the order does not exist or belongs to another user.
	FindByID(ctx context.Context, userID, orderID int64) (*domain.Order, error)
}

type Orders struct {
	store store.OrderStore
}

func NewOrders(orderStore store.OrderStore) *Orders {
	return &Orders{store: orderStore}
}

func (s *Orders) FindOrdersByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Orders) FindByID(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	return s.store.GetByIDForUser(ctx, orderID, userID)
}
