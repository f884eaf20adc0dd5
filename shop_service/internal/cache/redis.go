package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	"github.com/redis/go-redis/v9"
)

var (
	_ CartViewCache = (*RedisCartViewCache)(nil)
	_ ItemCache     = (*RedisItemCache)(nil)
)

type RedisCartViewCache struct {
	client redis.UniversalClient
	region config.CacheRegionConfig
}

func NewRedisCartViewCache(client redis.UniversalClient, cfg config.CacheConfig) *RedisCartViewCache {
	return &RedisCartViewCache{
		client: client,
		region: cfg.Region(RegionCartItems, DefaultRegions[RegionCartItems]),
	}
}

func (r *RedisCartViewCache) Generation(ctx context.Context, userID int64) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (r *RedisCartViewCache) Get(ctx context.Context, userID, generation int64) ([]domain.PricedLine, error) {
	data, err := r.client.Get(ctx, cartKey(userID, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []domain.PricedLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart view failed: %w", err)
	}
	return lines, nil
}

func (r *RedisCartViewCache) Set(ctx context.Context, userID, generation int64, lines []domain.PricedLine) error {
	if lines == nil {
		lines = []domain.PricedLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart view failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(userID, generation), data, ttlWithJitter(r.region)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate bumps the user's generation and drops the entry of the previous one.
func (r *RedisCartViewCache) Invalidate(ctx context.Context, userID int64) error {
	gen, err := r.client.Incr(ctx, generationKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis incr generation failed: %w", err)
	}
	// Best effort, the old entry is unreachable already.
	_ = r.client.Del(ctx, cartKey(userID, gen-1)).Err()
	return nil
}

type RedisItemCache struct {
	client redis.UniversalClient
	region config.CacheRegionConfig
}

func NewRedisItemCache(client redis.UniversalClient, cfg config.CacheConfig) *RedisItemCache {
	return &RedisItemCache{
		client: client,
		region: cfg.Region(RegionItem, DefaultRegions[RegionItem]),
	}
}

func (r *RedisItemCache) Get(ctx context.Context, itemID int64) (*domain.Item, error) {
	data, err := r.client.Get(ctx, itemKey(itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item failed: %w", err)
	}
	return &item, nil
}

func (r *RedisItemCache) Set(ctx context.Context, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item failed: %w", err)
	}
	if err := r.client.Set(ctx, itemKey(item.ID), data, ttlWithJitter(r.region)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisItemCache) Delete(ctx context.Context, itemID int64) error {
	if err := r.client.Del(ctx, itemKey(itemID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func generationKey(userID int64) string {
	return "cart:gen:" + strconv.FormatInt(userID, 10)
}

func cartKey(userID, generation int64) string {
	return fmt.Sprintf("cart:%d:%d", userID, generation)
}

func itemKey(itemID int64) string {
	return "item:" + strconv.FormatInt(itemID, 10)
}
