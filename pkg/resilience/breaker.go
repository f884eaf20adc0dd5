package resilience

import (
	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreaker builds a breaker that trips on consecutive failures or on the configured error rate.
// isSuccessful decides which errors count against the breaker; business rejections should return true.
func NewCircuitBreaker[T any](name string, cfg config.CircuitBreakerConfig, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[T] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			minRequests := cfg.MinRequests
			if minRequests == 0 {
				minRequests = cfg.ConsecutiveFailures + 1
			}
			total := counts.TotalSuccesses + counts.TotalFailures
			return cfg.ErrorRatePercent > 0 && total >= minRequests &&
				float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent)
		},
		IsSuccessful: isSuccessful,
	}
	return gobreaker.NewCircuitBreaker[T](st)
}
