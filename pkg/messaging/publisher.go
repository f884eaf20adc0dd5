package messaging

import (
	"context"
)

const (
	OrdersCreatedSubject     = "orders.created"
	CartsClearPendingSubject = "carts.clear.pending"
)

// StreamSubjects are the subjects captured by the storefront JetStream stream.
var StreamSubjects = []string{OrdersCreatedSubject, CartsClearPendingSubject}

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Keyed events carry a stable key. Publishing the same key twice within the
// broker's duplicate window stores the event once.
type Keyed interface {
	Key() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
