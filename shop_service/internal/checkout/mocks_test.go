package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/gomarket/pkg/messaging"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/shopspring/decimal"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeCartStore keeps priced lines per user.
type fakeCartStore struct {
	mu       sync.Mutex
	lines    map[int64][]domain.PricedLine
	listErr  error
	clearErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{lines: make(map[int64][]domain.PricedLine)}
}

func (f *fakeCartStore) put(userID int64, price int64, quantity int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.lines[userID]) + 1)
	f.lines[userID] = append(f.lines[userID], domain.PricedLine{
		ItemID:    id,
		Title:     "item",
		UnitPrice: decimal.NewFromInt(price),
		Quantity:  quantity,
	})
}

func (f *fakeCartStore) count(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines[userID])
}

func (f *fakeCartStore) AddOrIncrement(context.Context, int64, int64) error {
	return errors.New("not used")
}

func (f *fakeCartStore) DecrementOrRemove(context.Context, int64, int64) error {
	return errors.New("not used")
}

func (f *fakeCartStore) Remove(context.Context, int64, int64) (int64, error) {
	return 0, errors.New("not used")
}

func (f *fakeCartStore) CountInCart(context.Context, int64, int64) (int32, error) {
	return 0, errors.New("not used")
}

func (f *fakeCartStore) ListForUser(_ context.Context, userID int64) ([]domain.PricedLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.PricedLine(nil), f.lines[userID]...), nil
}

func (f *fakeCartStore) Clear(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.lines, userID)
	return nil
}

// fakeOrderStore fails Save when err is set or the context is already done.
type fakeOrderStore struct {
	mu     sync.Mutex
	err    error
	orders []domain.Order
}

func (f *fakeOrderStore) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	saved := *order
	saved.ID = int64(len(f.orders) + 1)
	saved.CreatedAt = time.Now()
	for i := range saved.Lines {
		saved.Lines[i].ID = int64(i + 1)
		saved.Lines[i].OrderID = saved.ID
	}
	f.orders = append(f.orders, saved)
	return &saved, nil
}

func (f *fakeOrderStore) saved() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Order(nil), f.orders...)
}

func (f *fakeOrderStore) ListForUser(context.Context, int64) ([]domain.Order, error) {
	return nil, errors.New("not used")
}

func (f *fakeOrderStore) GetByIDForUser(context.Context, int64, int64) (*domain.Order, error) {
	return nil, shoperrors.ErrOrderNotFound
}

// fakeDebitor keeps balances and counts debit calls.
type fakeDebitor struct {
	mu       sync.Mutex
	balances map[int64]decimal.Decimal
	err      error
	calls    int
	// onDebit runs after a successful debit.
	onDebit func()
}

func newFakeDebitor(userID int64, balance int64) *fakeDebitor {
	return &fakeDebitor{balances: map[int64]decimal.Decimal{userID: decimal.NewFromInt(balance)}}
}

func (f *fakeDebitor) Debit(_ context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	f.calls++
	if f.err != nil {
		f.mu.Unlock()
		return decimal.Zero, f.err
	}
	balance, ok := f.balances[userID]
	if !ok {
		f.mu.Unlock()
		return decimal.Zero, shoperrors.ErrBalanceNotFound
	}
	if balance.LessThan(amount) {
		f.mu.Unlock()
		return decimal.Zero, shoperrors.ErrInsufficientFunds
	}
	balance = balance.Sub(amount)
	f.balances[userID] = balance
	onDebit := f.onDebit
	f.mu.Unlock()
	if onDebit != nil {
		onDebit()
	}
	return balance, nil
}

func (f *fakeDebitor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeDebitor) balance(userID int64) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls [][2]int64
}

func (r *recordingScheduler) Schedule(_ context.Context, userID, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]int64{userID, orderID})
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []messaging.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

// failingViews is a CartViewCache whose Invalidate always fails.
type failingViews struct{}

func (failingViews) Generation(context.Context, int64) (int64, error) { return 0, nil }

func (failingViews) Get(context.Context, int64, int64) ([]domain.PricedLine, error) {
	return nil, errors.New("redis down")
}

func (failingViews) Set(context.Context, int64, int64, []domain.PricedLine) error {
	return errors.New("redis down")
}

func (failingViews) Invalidate(context.Context, int64) error { return errors.New("redis down") }
