// Package checkout turns a user's cart into a paid order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/gomarket/pkg/messaging"
	"github.com/abgdnv/gomarket/pkg/messaging/events"
	"github.com/abgdnv/gomarket/shop_service/internal/cache"
	"github.com/abgdnv/gomarket/shop_service/internal/domain"
	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/abgdnv/gomarket/shop_service/internal/lease"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/abgdnv/gomarket/shop_service/internal/reclear"
	"github.com/abgdnv/gomarket/shop_service/internal/store"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/abgdnv/gomarket/shop_service/internal/checkout"

	// DefaultDrainTimeout bounds reading the cart before the debit.
	DefaultDrainTimeout = 5 * time.Second
	// DefaultAfterDebitTimeout bounds order persistence and cart clearing once the balance is debited.
	DefaultAfterDebitTimeout = 10 * time.Second

	releaseTimeout = 2 * time.Second
)

// Debitor charges the user's balance.
type Debitor interface {
	// Debit returns the new balance, or ErrInsufficientFunds, ErrBalanceNotFound or ErrPaymentUnavailable.
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

// Checkouter places orders.
type Checkouter interface {
	// Checkout pays for the user's cart and returns the saved order.
	// Failures are *Error values wrapping ErrEmptyCart, ErrInsufficientFunds, ErrPaymentUnavailable,
	// ErrOrderPersistFailedAfterDebit or ErrCheckoutInProgress.
	Checkout(ctx context.Context, userID int64) (*domain.Order, error)
}

type Orchestrator struct {
	locker            lease.Locker
	carts             store.CartStore
	orders            store.OrderStore
	views             cache.CartViewCache
	payments          Debitor
	reclear           reclear.Scheduler
	publisher         messaging.Publisher
	metrics           *metrics.Metrics
	tracer            trace.Tracer
	timeouts          Timeouts
	logger            *slog.Logger
}

// Timeouts bound the phases of a checkout. Together with the payment client timeout
// and the lease wait they must fit in the lease ttl.
type Timeouts struct {
	Drain      time.Duration
	AfterDebit time.Duration
}

// Deps groups the collaborators of the Orchestrator.
type Deps struct {
	Locker    lease.Locker
	Carts     store.CartStore
	Orders    store.OrderStore
	Views     cache.CartViewCache
	Payments  Debitor
	Reclear   reclear.Scheduler
	Publisher messaging.Publisher
	Metrics   *metrics.Metrics
}

func NewOrchestrator(deps Deps, timeouts Timeouts, logger *slog.Logger) *Orchestrator {
	if timeouts.Drain <= 0 {
		timeouts.Drain = DefaultDrainTimeout
	}
	if timeouts.AfterDebit <= 0 {
		timeouts.AfterDebit = DefaultAfterDebitTimeout
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Orchestrator{
		locker:            deps.Locker,
		carts:             deps.Carts,
		orders:            deps.Orders,
		views:             deps.Views,
		payments:          deps.Payments,
		reclear:           deps.Reclear,
		publisher:         publisher,
		metrics:           deps.Metrics,
		tracer:            otel.Tracer(tracerName),
		timeouts:          timeouts,
		logger:            logger.With("component", "checkout"),
	}
}

func (o *Orchestrator) Checkout(ctx context.Context, userID int64) (_ *domain.Order, err error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "checkout", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer func() {
		o.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
		o.metrics.Checkouts.WithLabelValues(result(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	span.AddEvent(string(StateDrainingCart))
	l, err := o.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, fail(StateDrainingCart, err)
	}
	defer o.release(ctx, l, userID)

	lines, err := o.drain(ctx, l, userID)
	if err != nil {
		return nil, fail(StateDrainingCart, err)
	}
	if len(lines) == 0 {
		return nil, fail(StateDrainingCart, shoperrors.ErrEmptyCart)
	}

	span.AddEvent(string(StatePricing))
	order := domain.NewOrder(userID, lines)
	span.SetAttributes(attribute.String("order.total", order.TotalSum.String()), attribute.Int("order.lines", len(lines)))

	span.AddEvent(string(StateDebiting))
	if lease.IsLost(l) {
		o.logger.WarnContext(ctx, "Lease lost before debit, checkout abandoned", "user_id", userID)
		return nil, fail(StateDebiting, shoperrors.ErrCheckoutInProgress)
	}
	newBalance, err := o.payments.Debit(ctx, userID, order.TotalSum)
	if err != nil {
		return nil, fail(StateDebiting, o.debitError(ctx, userID, err))
	}

	// Past the debit the order is finished even if the caller goes away.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeouts.AfterDebit)
	defer cancel()

	span.AddEvent(string(StatePersistingOrder))
	saved, err := o.orders.Save(pctx, order)
	if err != nil {
		o.metrics.PersistAfterDebitFails.Inc()
		o.logger.ErrorContext(ctx, "Order not persisted after debit",
			"alert", "reconciliation",
			"user_id", userID,
			"amount", order.TotalSum.String(),
			"new_balance", newBalance.String(),
			"error", err)
		return nil, fail(StatePersistingOrder, fmt.Errorf("%w: %w", shoperrors.ErrOrderPersistFailedAfterDebit, err))
	}

	span.AddEvent(string(StateClearingCart))
	o.clearCart(pctx, userID, saved.ID)

	span.AddEvent(string(StateDone))
	span.SetAttributes(attribute.Int64("order.id", saved.ID))
	o.publish(pctx, saved, len(lines))
	o.logger.InfoContext(ctx, "Order placed", "user_id", userID, "order_id", saved.ID, "total", saved.TotalSum.String())
	return saved, nil
}

// drain reads the cart within the drain timeout. Losing the lease cancels the read.
func (o *Orchestrator) drain(ctx context.Context, l lease.Lease, userID int64) ([]domain.PricedLine, error) {
	dctx, cancel := context.WithTimeout(ctx, o.timeouts.Drain)
	defer cancel()
	if lost := l.Lost(); lost != nil {
		go func() {
			select {
			case <-lost:
				cancel()
			case <-dctx.Done():
			}
		}()
	}
	lines, err := o.carts.ListForUser(dctx, userID)
	if err != nil && lease.IsLost(l) {
		return nil, fmt.Errorf("%w: %w", shoperrors.ErrCheckoutInProgress, err)
	}
	return lines, err
}

func (o *Orchestrator) debitError(ctx context.Context, userID int64, err error) error {
	switch {
	case errors.Is(err, shoperrors.ErrInsufficientFunds):
		return err
	case errors.Is(err, shoperrors.ErrBalanceNotFound):
		return fmt.Errorf("%w: %w", shoperrors.ErrInsufficientFunds, err)
	case errors.Is(err, shoperrors.ErrPaymentUnavailable):
		o.logger.WarnContext(ctx, "Payment service unavailable", "user_id", userID, "error", err)
		return err
	default:
		o.logger.WarnContext(ctx, "Payment service unavailable", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", shoperrors.ErrPaymentUnavailable, err)
	}
}

// clearCart empties the paid cart. A failure leaves the order valid and hands the cart to the re-clear scheduler.
func (o *Orchestrator) clearCart(ctx context.Context, userID, orderID int64) {
	err := o.carts.Clear(ctx, userID)
	if err == nil {
		err = o.views.Invalidate(ctx, userID)
	}
	if err == nil {
		return
	}
	o.metrics.CartClearFailures.Inc()
	o.logger.WarnContext(ctx, "Failed to clear cart after order", "user_id", userID, "order_id", orderID, "error", err)
	if err := o.reclear.Schedule(ctx, userID, orderID); err != nil {
		o.logger.ErrorContext(ctx, "Failed to schedule cart re-clear", "user_id", userID, "order_id", orderID, "error", err)
	}
}

func (o *Orchestrator) publish(ctx context.Context, order *domain.Order, lines int) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.OrderCreatedEvent{
		Carrier:    carrier,
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalSum,
		Lines:      lines,
		CreatedAt:  order.CreatedAt,
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.ErrorContext(ctx, "Failed to publish OrderCreatedEvent", "order_id", order.ID, "error", err)
	}
}

func (o *Orchestrator) release(ctx context.Context, l lease.Lease, userID int64) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := l.Release(rctx); err != nil {
		o.logger.WarnContext(ctx, "Failed to release lease", "user_id", userID, "error", err)
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, shoperrors.ErrEmptyCart):
		return metrics.ResultEmptyCart
	case errors.Is(err, shoperrors.ErrInsufficientFunds):
		return metrics.ResultInsufficientFunds
	case errors.Is(err, shoperrors.ErrPaymentUnavailable):
		return metrics.ResultPaymentUnavailable
	case errors.Is(err, shoperrors.ErrCheckoutInProgress):
		return metrics.ResultInProgress
	case errors.Is(err, shoperrors.ErrOrderPersistFailedAfterDebit):
		return metrics.ResultPersistFailed
	default:
		return metrics.ResultError
	}
}
