package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/jackc/pgx/v5"
)

func (p *PgCatalogStore) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := p.q.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shoperrors.ErrItemNotFound
		}
		return nil, fmt.Errorf("%w: %w", shoperrors.ErrFailedToFindItem, err)
	}
	return &domain.Item{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		ImgPath:     item.ImgPath,
		Price:       item.Price,
	}, nil
}
