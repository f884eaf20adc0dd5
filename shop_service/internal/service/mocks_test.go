package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/shop_service/internal/cache"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memCartStore is an in-memory CartStore that also serves catalog items.
type memCartStore struct {
	mu        sync.Mutex
	items     map[int64]domain.Item
	lines     map[int64]map[int64]int32
	order     map[int64][]int64
	listCalls atomic.Int32
	err       error
	// listGate, when set, holds ListForUser until it is closed or ctx ends.
	listGate chan struct{}
}

func newMemCartStore(items ...domain.Item) *memCartStore {
	s := &memCartStore{
		items: make(map[int64]domain.Item),
		lines: make(map[int64]map[int64]int32),
		order: make(map[int64][]int64),
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (m *memCartStore) AddOrIncrement(_ context.Context, userID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[itemID]; !ok {
		return shoperrors.ErrItemNotFound
	}
	if m.lines[userID] == nil {
		m.lines[userID] = make(map[int64]int32)
	}
	if m.lines[userID][itemID] == 0 {
		m.order[userID] = append(m.order[userID], itemID)
	}
	m.lines[userID][itemID]++
	return nil
}

func (m *memCartStore) DecrementOrRemove(_ context.Context, userID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	switch m.lines[userID][itemID] {
	case 0:
	case 1:
		m.removeLocked(userID, itemID)
	default:
		m.lines[userID][itemID]--
	}
	return nil
}

func (m *memCartStore) Remove(_ context.Context, userID, itemID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.lines[userID][itemID] == 0 {
		return 0, nil
	}
	m.removeLocked(userID, itemID)
	return 1, nil
}

func (m *memCartStore) removeLocked(userID, itemID int64) {
	delete(m.lines[userID], itemID)
	ids := m.order[userID][:0]
	for _, id := range m.order[userID] {
		if id != itemID {
			ids = append(ids, id)
		}
	}
	m.order[userID] = ids
}

func (m *memCartStore) ListForUser(ctx context.Context, userID int64) ([]domain.PricedLine, error) {
	m.listCalls.Add(1)
	if m.listGate != nil {
		select {
		case <-m.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	lines := make([]domain.PricedLine, 0, len(m.order[userID]))
	for _, id := range m.order[userID] {
		it := m.items[id]
		lines = append(lines, domain.PricedLine{
			ItemID: id, Title: it.Title, Description: it.Description, ImgPath: it.ImgPath,
			UnitPrice: it.Price, Quantity: m.lines[userID][id],
		})
	}
	return lines, nil
}

func (m *memCartStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.lines, userID)
	delete(m.order, userID)
	return nil
}

func (m *memCartStore) CountInCart(_ context.Context, userID, itemID int64) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines[userID][itemID], nil
}

func (m *memCartStore) GetItem(_ context.Context, itemID int64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, shoperrors.ErrItemNotFound
	}
	return &it, nil
}

// mockOrderStore is a mock implementation of the OrderStore interface
type mockOrderStore struct {
	orders []domain.Order
	err    error
}

func (m *mockOrderStore) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	saved := *order
	saved.ID = int64(len(m.orders) + 1)
	m.orders = append(m.orders, saved)
	return &saved, nil
}

func (m *mockOrderStore) ListForUser(_ context.Context, userID int64) ([]domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockOrderStore) GetByIDForUser(_ context.Context, orderID, userID int64) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, shoperrors.ErrOrderNotFound
}

type mockBalance struct {
	balance decimal.Decimal
	err     error
}

func (m mockBalance) GetBalance(context.Context, int64) (decimal.Decimal, error) {
	return m.balance, m.err
}

// failingInvalidateCache wraps a working cache and fails every Invalidate.
type failingInvalidateCache struct {
	cache.CartViewCache
	err error
}

func (f failingInvalidateCache) Invalidate(context.Context, int64) error {
	return f.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

var (
	ball  = domain.Item{ID: 1, Title: "ball", Price: decimal.NewFromInt(10)}
	shoes = domain.Item{ID: 2, Title: "shoes", Price: decimal.NewFromInt(15)}
)

var emptyCacheConfig = config.CacheConfig{}
