package reclear

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/gomarket/pkg/messaging"
	"github.com/abgdnv/gomarket/pkg/messaging/events"
	"github.com/google/uuid"
)

// NatsScheduler publishes a CartClearPendingEvent for the re-clear worker.
// If the event cannot be published the clear is retried locally instead.
type NatsScheduler struct {
	publisher messaging.Publisher
	fallback  Scheduler
	logger    *slog.Logger
}

func NewNatsScheduler(publisher messaging.Publisher, fallback Scheduler, logger *slog.Logger) *NatsScheduler {
	return &NatsScheduler{publisher: publisher, fallback: fallback, logger: logger.With("component", "reclear")}
}

func (s *NatsScheduler) Schedule(ctx context.Context, userID, orderID int64) error {
	event := events.CartClearPendingEvent{
		EventID:   uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish CartClearPendingEvent, retrying locally",
			"user_id", userID, "order_id", orderID, "error", err)
		return s.fallback.Schedule(ctx, userID, orderID)
	}
	s.logger.InfoContext(ctx, "Cart re-clear scheduled", "user_id", userID, "order_id", orderID, "event_id", event.EventID)
	return nil
}
