package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/gomarket/pkg/messaging"
)

// CartClearPendingEvent asks for a user's cart to be cleared after a paid order
// whose own cart clear failed.
type CartClearPendingEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (e CartClearPendingEvent) Subject() string {
	return messaging.CartsClearPendingSubject
}

// Key makes retries of one scheduling attempt idempotent.
func (e CartClearPendingEvent) Key() string {
	return "cart-clear-" + e.EventID
}

func (e CartClearPendingEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
