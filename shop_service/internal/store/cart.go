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

func (p *PgCartStore) AddOrIncrement(ctx context.Context, userID, itemID int64) error {
	affected, err := p.q.UpsertCartPosition(ctx, db.CartPositionParams{ItemID: itemID, UserID: userID})
	if err != nil {
		return fmt.Errorf("%w: %w", shoperrors.ErrCartUpdate, err)
	}
	if affected == 0 {
		return shoperrors.ErrItemNotFound
	}
	return nil
}

func (p *PgCartStore) DecrementOrRemove(ctx context.Context, userID, itemID int64) error {
	params := db.CartPositionParams{ItemID: itemID, UserID: userID}
	return p.withTransaction(ctx, func(qtx *db.Queries) error {
		// The row lock serializes concurrent decrements of the same line.
		count, err := qtx.LockCartPositionCount(ctx, params)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("%w: %w", shoperrors.ErrCartUpdate, err)
		}
		if count <= 1 {
			if _, err := qtx.DeleteCartPosition(ctx, params); err != nil {
				return fmt.Errorf("%w: %w", shoperrors.ErrCartUpdate, err)
			}
			return nil
		}
		if err := qtx.DecrementCartPosition(ctx, params); err != nil {
			return fmt.Errorf("%w: %w", shoperrors.ErrCartUpdate, err)
		}
		return nil
	})
}

func (p *PgCartStore) Remove(ctx context.Context, userID, itemID int64) (int64, error) {
	affected, err := p.q.DeleteCartPosition(ctx, db.CartPositionParams{ItemID: itemID, UserID: userID})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", shoperrors.ErrCartUpdate, err)
	}
	return affected, nil
}

func (p *PgCartStore) ListForUser(ctx context.Context, userID int64) ([]domain.PricedLine, error) {
	rows, err := p.q.ListCartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shoperrors.ErrFailedToListCart, err)
	}
	lines := make([]domain.PricedLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, domain.PricedLine{
			ItemID:      r.ItemID,
			Title:       r.Title,
			Description: r.Description,
			ImgPath:     r.ImgPath,
			UnitPrice:   r.Price,
			Quantity:    r.Count,
		})
	}
	return lines, nil
}

func (p *PgCartStore) Clear(ctx context.Context, userID int64) error {
	if _, err := p.q.DeleteCartPositionsByUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %w", shoperrors.ErrCartUpdate, err)
	}
	return nil
}

func (p *PgCartStore) CountInCart(ctx context.Context, userID, itemID int64) (int32, error) {
	count, err := p.q.GetCartPositionCount(ctx, db.CartPositionParams{ItemID: itemID, UserID: userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", shoperrors.ErrFailedToListCart, err)
	}
	return count, nil
}
