// Package cache provides the read-through cache regions of the shop.
package cache

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
)

// Region names as used in configuration.
const (
	RegionCartItems = "cart_items"
	RegionItem      = "item"
)

var ErrCacheMiss = errors.New("cache miss")

// CartViewCache stores the priced cart view of each user.
// Entries are versioned by a per-user generation; Invalidate moves the user to a new generation,
// so an entry written for an older generation is never read again.
type CartViewCache interface {
	Generation(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, userID, generation int64) ([]domain.PricedLine, error)
	Set(ctx context.Context, userID, generation int64, lines []domain.PricedLine) error
	Invalidate(ctx context.Context, userID int64) error
}

// ItemCache stores catalog items.
type ItemCache interface {
	Get(ctx context.Context, itemID int64) (*domain.Item, error)
	Set(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, itemID int64) error
}

// DefaultRegions are used for regions missing from configuration.
var DefaultRegions = map[string]config.CacheRegionConfig{
	RegionCartItems: {TTL: 10 * time.Minute, Jitter: 2 * time.Minute},
	RegionItem:      {TTL: 30 * time.Minute, Jitter: 5 * time.Minute},
}

func ttlWithJitter(r config.CacheRegionConfig) time.Duration {
	if r.Jitter <= 0 {
		return r.TTL
	}
	return r.TTL + rand.N(r.Jitter)
}
