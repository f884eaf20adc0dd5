// Package metrics holds the shop's business metrics.
package metrics

import (
	pkgmetrics "github.com/abgdnv/gomarket/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "shop"

// Checkout results.
const (
	ResultSuccess            = "success"
	ResultEmptyCart          = "empty_cart"
	ResultInsufficientFunds  = "insufficient_funds"
	ResultPaymentUnavailable = "payment_unavailable"
	ResultInProgress         = "in_progress"
	ResultPersistFailed      = "persist_failed_after_debit"
	ResultError              = "error"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

type Metrics struct {
	Checkouts              *prometheus.CounterVec
	CheckoutDuration       prometheus.Histogram
	PersistAfterDebitFails prometheus.Counter
	CartClearFailures      prometheus.Counter
	Reclears               *prometheus.CounterVec
	CacheLookups           *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "checkouts_total",
			Help:      "Checkouts by result.",
		}, []string{"result"}),
		CheckoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "checkout_duration_seconds",
			Help:      "Checkout latency including lease wait.",
			Buckets:   prometheus.DefBuckets,
		}),
		PersistAfterDebitFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "order_persist_failed_after_debit_total",
			Help:      "Orders that could not be saved after the balance was debited. Each one needs reconciliation.",
		}),
		CartClearFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "cart_clear_failures_total",
			Help:      "Carts that could not be cleared right after a paid order.",
		}),
		Reclears: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "cart_reclears_total",
			Help:      "Deferred cart clears by outcome.",
		}, []string{"outcome"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by region and result.",
		}, []string{"region", "result"}),
	}
}

// NewNop returns metrics registered nowhere, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
