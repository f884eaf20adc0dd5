package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResilienceConfig configures protection of calls to remote services.
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// CircuitBreakerConfig trips the breaker on a run of failures or, once MinRequests calls were seen
// in the current Interval, on a failure share above ErrorRatePercent.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	MinRequests         uint32        `koanf:"minrequests"`
	Interval            time.Duration `koanf:"interval"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
	HalfOpenRequests    uint32        `koanf:"halfopenrequests"`
}

func (c *ResilienceConfig) String() string {
	cb := c.CircuitBreaker
	var b strings.Builder
	b.WriteString("\n--- Circuit Breaker ---\n")
	b.WriteString(fmt.Sprintf("  trip: %d consecutive failures or >%d%% of at least %d calls per %s\n",
		cb.ConsecutiveFailures, cb.ErrorRatePercent, cb.MinRequests, cb.Interval))
	b.WriteString(fmt.Sprintf("  open for %s, then %d probe request(s)\n", cb.OpenTimeout, cb.HalfOpenRequests))
	return b.String()
}

// Validate checks the breaker settings and defaults HalfOpenRequests to a single probe.
func (c *ResilienceConfig) Validate() error {
	cb := &c.CircuitBreaker
	var errs []error
	if cb.ConsecutiveFailures == 0 {
		errs = append(errs, errors.New("resilience.circuitbreaker.consecutivefailures must be greater than 0"))
	}
	if cb.ErrorRatePercent < 0 || cb.ErrorRatePercent > 100 {
		errs = append(errs, fmt.Errorf("resilience.circuitbreaker.errorratepercent must be within [0, 100], got %d", cb.ErrorRatePercent))
	}
	if cb.OpenTimeout <= 0 {
		errs = append(errs, errors.New("resilience.circuitbreaker.opentimeout must be greater than 0"))
	}
	if cb.Interval < 0 {
		errs = append(errs, errors.New("resilience.circuitbreaker.interval cannot be negative"))
	}
	if cb.HalfOpenRequests == 0 {
		cb.HalfOpenRequests = 1
	}
	return errors.Join(errs...)
}
