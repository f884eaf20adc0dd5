package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NATSConfig points at the broker and names the JetStream stream holding the storefront subjects.
type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Stream  string        `koanf:"stream"`
}

func (c *NATSConfig) String() string {
	if !c.Enabled {
		return "\n--- NATS ---\n  enabled: false\n"
	}
	return fmt.Sprintf("\n--- NATS ---\n  enabled: true\n  url: %s\n  timeout: %s\n  stream: %s\n",
		MaskURL(c.Url), c.Timeout, c.Stream)
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if u, err := url.Parse(c.Url); c.Url == "" || err != nil || (u.Scheme != "nats" && u.Scheme != "tls") {
		errs = append(errs, fmt.Errorf("nats url must be a nats:// or tls:// address, got %q", MaskURL(c.Url)))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("nats dial timeout must be positive"))
	}
	if c.Stream == "" || strings.ContainsAny(c.Stream, " .*>") {
		errs = append(errs, fmt.Errorf("nats stream name %q is invalid", c.Stream))
	}
	return errors.Join(errs...)
}
