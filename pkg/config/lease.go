package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	LeaseBackendRedis = "redis"
	LeaseBackendLocal = "local"
)

// LeaseConfig configures the per-user lease that serializes checkout and cart mutations.
type LeaseConfig struct {
	Backend string        `koanf:"backend"`
	TTL     time.Duration `koanf:"ttl"`
	Wait    time.Duration `koanf:"wait"`
}

// String returns a string representation of the lease configuration.
func (c *LeaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Lease ---\n")
	b.WriteString(fmt.Sprintf("  backend: %s\n", c.Backend))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  wait: %s\n", c.Wait))
	return b.String()
}

func (c *LeaseConfig) Validate() error {
	switch c.Backend {
	case LeaseBackendRedis, LeaseBackendLocal:
	default:
		return fmt.Errorf("lease backend must be %q or %q, got %q", LeaseBackendRedis, LeaseBackendLocal, c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("lease ttl must be greater than 0")
	}
	if c.Wait <= 0 {
		return fmt.Errorf("lease wait must be greater than 0")
	}
	return nil
}
