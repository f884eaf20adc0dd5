package reclear

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/shop_service/internal/metrics"
	"github.com/cenkalti/backoff/v5"
)

// Re-clear outcomes.
const (
	OutcomeCleared   = "cleared"
	OutcomeFailed    = "failed"
	OutcomeRequeued  = "requeued"
	OutcomeMalformed = "malformed"
)

// LocalScheduler retries the clear in a goroutine of the current process.
// A clear still pending when the process exits is lost.
type LocalScheduler struct {
	clearer Clearer
	cfg     config.ReclearConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewLocalScheduler(clearer Clearer, cfg config.ReclearConfig, m *metrics.Metrics, logger *slog.Logger) *LocalScheduler {
	return &LocalScheduler{
		clearer: clearer,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "reclear"),
	}
}

func (s *LocalScheduler) Schedule(ctx context.Context, userID, orderID int64) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx), userID, orderID)
	}()
	return nil
}

func (s *LocalScheduler) run(ctx context.Context, userID, orderID int64) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.InitialInterval
	bo.MaxInterval = s.cfg.MaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.clearer.Clear(ctx, userID)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(s.cfg.MaxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.DebugContext(ctx, "Cart re-clear attempt failed", "user_id", userID, "order_id", orderID, "retry_in", next, "error", err)
		}))
	if err != nil {
		s.metrics.Reclears.WithLabelValues(OutcomeFailed).Inc()
		s.logger.ErrorContext(ctx, "Cart re-clear gave up, paid items are still in the cart",
			"alert", "reconciliation", "user_id", userID, "order_id", orderID, "error", err)
		return
	}
	s.metrics.Reclears.WithLabelValues(OutcomeCleared).Inc()
	s.logger.InfoContext(ctx, "Cart re-cleared", "user_id", userID, "order_id", orderID)
}

// Wait blocks until every scheduled clear has finished.
func (s *LocalScheduler) Wait() {
	s.wg.Wait()
}
