// Package reclear finishes cart clears that failed after a paid order.
package reclear

import "context"

// Scheduler arranges for the user's cart to be cleared later.
type Scheduler interface {
	Schedule(ctx context.Context, userID, orderID int64) error
}

// Clearer empties a user's cart. Clearing an empty cart must succeed.
type Clearer interface {
	Clear(ctx context.Context, userID int64) error
}
