package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig configures a client of another service's HTTP API.
type HTTPClientConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
	Token   string        `koanf:"token"`
}

// String returns a string representation of the HTTP client configuration.
func (c *HTTPClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Client ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  token: %t\n", c.Token != ""))
	return b.String()
}

func (c *HTTPClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is not configured")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("client timeout is not configured")
	}
	return nil
}
