// Package lease provides the per-user lease that serializes checkout and cart mutations of one user.
package lease

import (
	"context"
	"errors"
)

// Locker hands out per-user leases.
// Acquire waits a bounded time for a held lease and then fails with ErrCheckoutInProgress.
type Locker interface {
	Acquire(ctx context.Context, userID int64) (Lease, error)
}

// Lease is held until Release. Releasing twice is a no-op.
type Lease interface {
	Release(ctx context.Context) error
	// Lost is closed once the lease can no longer be trusted to be held, e.g. it expired
	// or was taken over. A nil channel means the lease cannot be lost.
	Lost() <-chan struct{}
}

var errHeld = errors.New("lease is held")

// IsLost reports whether l has already been lost.
func IsLost(l Lease) bool {
	select {
	case <-l.Lost():
		return true
	default:
		return false
	}
}
