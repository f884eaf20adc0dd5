package lease

import (
	"context"
	"sync"
	"time"

	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
)

// LocalLocker keeps leases in process memory. It only serializes requests served by one instance.
type LocalLocker struct {
	mu    sync.Mutex
	wait  time.Duration
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, slots: make(map[int64]*slot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, userID int64) (Lease, error) {
	ll, err := l.acquire(ctx, userID, l.wait)
	if err != nil {
		return nil, err
	}
	return ll, nil
}

func (l *LocalLocker) acquire(ctx context.Context, userID int64, wait time.Duration) (*localLease, error) {
	s := l.ref(userID)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return &localLease{locker: l, userID: userID, slot: s}, nil
	case <-timer.C:
		l.unref(userID, s)
		return nil, shoperrors.ErrCheckoutInProgress
	case <-ctx.Done():
		l.unref(userID, s)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) ref(userID int64) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[userID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[userID] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) unref(userID int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, userID)
	}
}

type localLease struct {
	locker *LocalLocker
	userID int64
	slot   *slot
	once   sync.Once
}

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		<-l.slot.ch
		l.locker.unref(l.userID, l.slot)
	})
	return nil
}

func (l *localLease) Lost() <-chan struct{} { return nil }
