// Package metrics holds the payment service's business metrics.
package metrics

import (
	pkgmetrics "github.com/abgdnv/gomarket/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "payment"

// Debit results.
const (
	ResultSuccess           = "success"
	ResultInsufficientFunds = "insufficient_funds"
	ResultNotFound          = "not_found"
	ResultInvalidAmount     = "invalid_amount"
	ResultError             = "error"
)

type Metrics struct {
	Debits          *prometheus.CounterVec
	DebitedAmount   prometheus.Counter
	ProvisionedUser prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Debits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "debits_total",
			Help:      "Debit attempts by result.",
		}, []string{"result"}),
		DebitedAmount: factory.NewCounter(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "debited_amount_total",
			Help:      "Money taken from balances.",
		}),
		ProvisionedUser: factory.NewCounter(prometheus.CounterOpts{
			Namespace: pkgmetrics.Namespace,
			Subsystem: subsystem,
			Name:      "balances_provisioned_total",
			Help:      "Balances opened automatically for new users.",
		}),
	}
}

func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
