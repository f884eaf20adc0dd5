package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

type DatabaseConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	// Migrate applies the embedded schema migrations on startup.
	Migrate bool `koanf:"migrate"`
}

func (c *DatabaseConfig) Validate() error {
	var errs []error
	if u, err := url.Parse(c.URL); c.URL == "" || err != nil {
		errs = append(errs, errors.New("database URL is not configured or unparsable"))
	} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		errs = append(errs, fmt.Errorf("database URL must use the postgres scheme: %s", MaskURL(c.URL)))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("database timeout must be positive"))
	}
	return errors.Join(errs...)
}

// MaskURL replaces the password of a connection URL.
func MaskURL(raw string) string {
	if raw == "" {
		return "<not configured>"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}
