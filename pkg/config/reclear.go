package config

import (
	"fmt"
	"strings"
	"time"
)

// ReclearConfig tunes the retries of a deferred cart clear.
type ReclearConfig struct {
	InitialInterval time.Duration `koanf:"initialinterval"`
	MaxInterval     time.Duration `koanf:"maxinterval"`
	MaxElapsedTime  time.Duration `koanf:"maxelapsedtime"`
	// RedeliveryDelay is how long a failed re-clear message waits before redelivery.
	RedeliveryDelay time.Duration `koanf:"redeliverydelay"`
}

// String returns a string representation of the re-clear configuration.
func (c *ReclearConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Reclear ---\n")
	b.WriteString(fmt.Sprintf("  initialinterval: %s\n", c.InitialInterval))
	b.WriteString(fmt.Sprintf("  maxinterval: %s\n", c.MaxInterval))
	b.WriteString(fmt.Sprintf("  maxelapsedtime: %s\n", c.MaxElapsedTime))
	b.WriteString(fmt.Sprintf("  redeliverydelay: %s\n", c.RedeliveryDelay))
	return b.String()
}

func (c *ReclearConfig) Validate() error {
	if c.InitialInterval <= 0 {
		return fmt.Errorf("reclear.initialinterval must be greater than 0")
	}
	if c.MaxInterval < c.InitialInterval {
		return fmt.Errorf("reclear.maxinterval must not be less than reclear.initialinterval")
	}
	if c.MaxElapsedTime <= 0 {
		return fmt.Errorf("reclear.maxelapsedtime must be greater than 0")
	}
	if c.RedeliveryDelay <= 0 {
		return fmt.Errorf("reclear.redeliverydelay must be greater than 0")
	}
	return nil
}
