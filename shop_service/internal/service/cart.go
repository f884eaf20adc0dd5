// Package service provides the shop's cart, catalog and order use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/abgdnv/gomarket/shop_service/internal/cache"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/abgdnv/gomarket/shop_service/internal/lease"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/abgdnv/gomarket/shop_service/internal/store"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Action is a cart mutation requested by the user.
type Action string

const (
	ActionPlus   Action = "PLUS"
	ActionMinus  Action = "MINUS"
	ActionDelete Action = "DELETE"
)

var ErrUnknownAction = errors.New("unknown cart action")

const (
	// releaseTimeout bounds lease release after the request context is gone.
	releaseTimeout = 2 * time.Second
	// sharedLoadTimeout bounds a coalesced cart load that outlives its callers.
	sharedLoadTimeout = 5 * time.Second
)

// BalanceReader reads the user's balance from the payment service.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// CartService manages the user's cart.
type CartService interface {
	// Apply runs a cart mutation under the user's lease and invalidates the cached cart view.
	// Returns ErrItemNotFound when adding an unknown item and ErrCacheInvalidation if the view could not be invalidated.
	Apply(ctx context.Context, userID, itemID int64, action Action) error

	// List returns the priced cart lines, served from the cache when possible.
	List(ctx context.Context, userID int64) ([]domain.PricedLine, error)

	// View returns the cart page: lines, total and whether the balance covers the total.
	View(ctx context.Context, userID int64) (*CartView, error)

	// Clear empties the cart under the user's lease.
	Clear(ctx context.Context, userID int64) error
}

// CartView is the cart page. MoneyEnough is nil when the payment service could not be asked.
type CartView struct {
	Items       []domain.PricedLine `json:"items"`
	Total       decimal.Decimal     `json:"total"`
	MoneyEnough *bool               `json:"money_enough,omitempty"`
}

type Cart struct {
	store   store.CartStore
	cache   cache.CartViewCache
	locker  lease.Locker
	balance BalanceReader
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
}

func NewCart(cartStore store.CartStore, viewCache cache.CartViewCache, locker lease.Locker, balance BalanceReader, m *metrics.Metrics, logger *slog.Logger) *Cart {
	return &Cart{
		store:   cartStore,
		cache:   viewCache,
		locker:  locker,
		balance: balance,
		metrics: m,
		logger:  logger.With("component", "cart"),
	}
}

func (c *Cart) Apply(ctx context.Context, userID, itemID int64, action Action) error {
	var op func(ctx context.Context) error
	switch action {
	case ActionPlus:
		op = func(ctx context.Context) error { return c.store.AddOrIncrement(ctx, userID, itemID) }
	case ActionMinus:
		op = func(ctx context.Context) error { return c.store.DecrementOrRemove(ctx, userID, itemID) }
	case ActionDelete:
		op = func(ctx context.Context) error {
			_, err := c.store.Remove(ctx, userID, itemID)
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return c.mutate(ctx, userID, op)
}

func (c *Cart) Clear(ctx context.Context, userID int64) error {
	return c.mutate(ctx, userID, func(ctx context.Context) error { return c.store.Clear(ctx, userID) })
}

// mutate runs op under the user's lease. The view is invalidated even if the caller goes away after the write.
func (c *Cart) mutate(ctx context.Context, userID int64, op func(ctx context.Context) error) error {
	l, err := c.locker.Acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer c.release(ctx, l, userID)

	if err := op(ctx); err != nil {
		return err
	}
	if err := c.cache.Invalidate(context.WithoutCancel(ctx), userID); err != nil {
		c.logger.ErrorContext(ctx, "Failed to invalidate cart view", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", shoperrors.ErrCacheInvalidation, err)
	}
	return nil
}

func (c *Cart) release(ctx context.Context, l lease.Lease, userID int64) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := l.Release(rctx); err != nil {
		c.logger.WarnContext(ctx, "Failed to release lease", "user_id", userID, "error", err)
	}
}

func (c *Cart) List(ctx context.Context, userID int64) ([]domain.PricedLine, error) {
	gen, err := c.cache.Generation(ctx, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "Cart cache unavailable, reading store", "user_id", userID, "error", err)
		c.metrics.CacheLookups.WithLabelValues(cache.RegionCartItems, metrics.CacheError).Inc()
		return c.store.ListForUser(ctx, userID)
	}

	lines, err := c.cache.Get(ctx, userID, gen)
	switch {
	case err == nil:
		c.metrics.CacheLookups.WithLabelValues(cache.RegionCartItems, metrics.CacheHit).Inc()
		return lines, nil
	case errors.Is(err, cache.ErrCacheMiss):
		c.metrics.CacheLookups.WithLabelValues(cache.RegionCartItems, metrics.CacheMiss).Inc()
	default:
		c.logger.WarnContext(ctx, "Failed to read cart view from cache", "user_id", userID, "error", err)
		c.metrics.CacheLookups.WithLabelValues(cache.RegionCartItems, metrics.CacheError).Inc()
	}

	// Loads for one generation are coalesced; a result stored under a stale generation is never read.
	// The shared load does not follow any single caller's cancellation.
	key := strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		fresh, err := c.store.ListForUser(lctx, userID)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(lctx, userID, gen, fresh); err != nil {
			c.logger.WarnContext(ctx, "Failed to cache cart view", "user_id", userID, "error", err)
		}
		return fresh, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]domain.PricedLine)), nil
	}
}

func (c *Cart) View(ctx context.Context, userID int64) (*CartView, error) {
	lines, err := c.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.PricedLine{}
	}
	view := &CartView{Items: lines, Total: domain.Total(lines)}

	balance, err := c.balance.GetBalance(ctx, userID)
	switch {
	case err == nil:
		enough := balance.GreaterThanOrEqual(view.Total)
		view.MoneyEnough = &enough
	case errors.Is(err, shoperrors.ErrBalanceNotFound):
		enough := view.Total.IsZero()
		view.MoneyEnough = &enough
	default:
		c.logger.WarnContext(ctx, "Balance unavailable for cart view", "user_id", userID, "error", err)
	}
	return view, nil
}
