package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/abgdnv/gomarket/shop_service/internal/cache"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/abgdnv/gomarket/shop_service/internal/store"
	"golang.org/x/sync/singleflight"
)

// ItemService serves the item page.
type ItemService interface {
	// GetItem returns the item with its quantity in the user's cart.
	// Returns ErrItemNotFound if the item does not exist.
	GetItem(ctx context.Context, userID, itemID int64) (*ItemView, error)
}

type ItemView struct {
	domain.Item
	Count int32 `json:"count"`
}

type Items struct {
	catalog store.CatalogStore
	carts   store.CartStore
	cache   cache.ItemCache
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
}

func NewItems(catalog store.CatalogStore, carts store.CartStore, itemCache cache.ItemCache, m *metrics.Metrics, logger *slog.Logger) *Items {
	return &Items{
		catalog: catalog,
		carts:   carts,
		cache:   itemCache,
		metrics: m,
		logger:  logger.With("component", "items"),
	}
}

func (s *Items) GetItem(ctx context.Context, userID, itemID int64) (*ItemView, error) {
	item, err := s.item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	count, err := s.carts.CountInCart(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return &ItemView{Item: *item, Count: count}, nil
}

func (s *Items) item(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := s.cache.Get(ctx, itemID)
	switch {
	case err == nil:
		s.metrics.CacheLookups.WithLabelValues(cache.RegionItem, metrics.CacheHit).Inc()
		return item, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.CacheLookups.WithLabelValues(cache.RegionItem, metrics.CacheMiss).Inc()
	default:
		s.logger.WarnContext(ctx, "Failed to read item from cache", "item_id", itemID, "error", err)
		s.metrics.CacheLookups.WithLabelValues(cache.RegionItem, metrics.CacheError).Inc()
	}

	v, err, _ := s.group.Do(strconv.FormatInt(itemID, 10), func() (any, error) {
		found, err := s.catalog.GetItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, found); err != nil {
			s.logger.WarnContext(ctx, "Failed to cache item", "item_id", itemID, "error", err)
		}
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	found := *v.(*domain.Item)
	return &found, nil
}
