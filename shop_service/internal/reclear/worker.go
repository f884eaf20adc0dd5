package reclear

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/pkg/messaging/events"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the worker uses.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// Worker consumes CartClearPendingEvents and clears the carts they name.
type Worker struct {
	js      jetstream.JetStream
	cfg     config.SubscriberConfig
	clearer Clearer
	redelay time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// clearTimeout bounds one clear attempt of the worker.
const clearTimeout = 10 * time.Second

func NewWorker(js jetstream.JetStream, cfg config.SubscriberConfig, reclearCfg config.ReclearConfig, clearer Clearer, m *metrics.Metrics, logger *slog.Logger) *Worker {
	return &Worker{
		js:      js,
		cfg:     cfg,
		clearer: clearer,
		redelay: reclearCfg.RedeliveryDelay,
		metrics: m,
		logger:  logger.With("component", "reclear-worker"),
	}
}

// Start creates the durable consumer and runs the configured number of workers until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	consumer, err := w.js.CreateOrUpdateConsumer(ctx, w.cfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: w.cfg.Subject,
		Durable:       w.cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       w.cfg.AckWait,
		MaxDeliver:    w.cfg.MaxDeliver,
	})
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range w.cfg.Workers {
		g.Go(func() error {
			return w.run(gCtx, consumer)
		})
	}
	return g.Wait()
}

func (w *Worker) run(ctx context.Context, consumer jetstream.Consumer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(w.cfg.Batch, jetstream.FetchMaxWait(w.cfg.Timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			w.logger.ErrorContext(ctx, "Failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.Interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg ackableMsg) {
	var event events.CartClearPendingEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil || event.UserID == 0 {
		w.metrics.Reclears.WithLabelValues(OutcomeMalformed).Inc()
		w.logger.ErrorContext(ctx, "Dropping malformed re-clear message", "subject", msg.Subject(), "error", err)
		if err := msg.Term(); err != nil {
			w.logger.ErrorContext(ctx, "Failed to terminate message", "error", err)
		}
		return
	}

	cctx, cancel := context.WithTimeout(ctx, clearTimeout)
	defer cancel()
	if err := w.clearer.Clear(cctx, event.UserID); err != nil {
		w.metrics.Reclears.WithLabelValues(OutcomeRequeued).Inc()
		w.logger.WarnContext(ctx, "Cart re-clear failed, requeueing",
			"user_id", event.UserID, "order_id", event.OrderID, "event_id", event.EventID, "error", err)
		if err := msg.NakWithDelay(w.redelay); err != nil {
			w.logger.ErrorContext(ctx, "Failed to nak message", "error", err)
		}
		return
	}

	w.metrics.Reclears.WithLabelValues(OutcomeCleared).Inc()
	w.logger.InfoContext(ctx, "Cart re-cleared", "user_id", event.UserID, "order_id", event.OrderID, "event_id", event.EventID)
	if err := msg.Ack(); err != nil {
		w.logger.ErrorContext(ctx, "Failed to ack message", "error", err)
	}
}
