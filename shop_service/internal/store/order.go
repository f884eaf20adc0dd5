package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/abgdnv/gomarket/shop_service/internal/store/db"
	"github.com/jackc/pgx/v5"
)

func (p *PgOrderStore) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var saved *domain.Order

	txErr := p.withTransaction(ctx, func(qtx *db.Queries) error {
		o, err := qtx.CreateOrder(ctx, db.CreateOrderParams{UserID: order.UserID, TotalSum: order.TotalSum})
		if err != nil {
			return fmt.Errorf("%w: %w", shoperrors.ErrCreateOrder, err)
		}
		positions := make([]db.OrderPosition, 0, len(order.Lines))
		for _, line := range order.Lines {
			pos, err := qtx.CreateOrderPosition(ctx, db.CreateOrderPositionParams{
				OrderID:     o.ID,
				Title:       line.Title,
				Description: line.Description,
				ImgPath:     line.ImgPath,
				Price:       line.UnitPrice,
				Count:       line.Quantity,
			})
			if err != nil {
				return fmt.Errorf("%w: %w", shoperrors.ErrCreateOrderLine, err)
			}
			positions = append(positions, pos)
		}
		saved = toDomainOrder(o, positions)
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return saved, nil
}

func (p *PgOrderStore) ListForUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	var result []domain.Order

	txErr := p.withTx(ctx, readSnapshot, func(qtx *db.Queries) error {
		orders, err := qtx.FindOrdersByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %w", shoperrors.ErrFailedToFindUserOrders, err)
		}
		if len(orders) == 0 {
			result = []domain.Order{}
			return nil
		}
		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		positions, err := qtx.FindOrderPositionsByOrderIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("%w: %w", shoperrors.ErrFailedToFindUserOrders, err)
		}
		byOrder := make(map[int64][]db.OrderPosition, len(orders))
		for _, pos := range positions {
			byOrder[pos.OrderID] = append(byOrder[pos.OrderID], pos)
		}
		result = make([]domain.Order, 0, len(orders))
		for _, o := range orders {
			result = append(result, *toDomainOrder(o, byOrder[o.ID]))
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return result, nil
}

func (p *PgOrderStore) GetByIDForUser(ctx context.Context, orderID, userID int64) (*domain.Order, error) {
	var found *domain.Order

	txErr := p.withTx(ctx, readSnapshot, func(qtx *db.Queries) error {
		o, err := qtx.FindOrderForUser(ctx, db.FindOrderForUserParams{ID: orderID, UserID: userID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shoperrors.ErrOrderNotFound
			}
			return fmt.Errorf("%w: %w", shoperrors.ErrFailedToFindOrder, err)
		}
		positions, err := qtx.FindOrderPositionsByOrderIDs(ctx, []int64{o.ID})
		if err != nil {
			return fmt.Errorf("%w: %w", shoperrors.ErrFailedToFindOrder, err)
		}
		found = toDomainOrder(o, positions)
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return found, nil
}

func toDomainOrder(o db.Order, positions []db.OrderPosition) *domain.Order {
	lines := make([]domain.OrderLine, 0, len(positions))
	for _, pos := range positions {
		lines = append(lines, domain.OrderLine{
			ID:          pos.ID,
			OrderID:     pos.OrderID,
			Title:       pos.Title,
			Description: pos.Description,
			ImgPath:     pos.ImgPath,
			UnitPrice:   pos.Price,
			Quantity:    pos.Count,
		})
	}
	return &domain.Order{
		ID:        o.ID,
		UserID:    o.UserID,
		TotalSum:  o.TotalSum,
		Lines:     lines,
		CreatedAt: o.CreatedAt,
	}
}
