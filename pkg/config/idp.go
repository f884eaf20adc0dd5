package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// IdP configures verification of bearer tokens issued by the identity provider.
// Verification is switched off when Enabled is false.
type IdP struct {
	Enabled  bool   `koanf:"enabled"`
	JwksURL  string `koanf:"jwksurl"`
	Issuer   string `koanf:"issuer"`
	ClientID string `koanf:"clientid"`
	Scope    string `koanf:"scope"`
	// MinInterval is the shortest gap between two JWKS downloads.
	MinInterval time.Duration `koanf:"mininterval"`
}

func (c *IdP) String() string {
	return fmt.Sprintf("\n--- IdP ---\n  enabled: %t\n  jwksurl: %s\n  issuer: %s\n  clientid: %s\n  scope: %s\n",
		c.Enabled, c.JwksURL, c.Issuer, c.ClientID, c.Scope)
}

func (c *IdP) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if u, err := url.Parse(c.JwksURL); c.JwksURL == "" || err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("idp jwks url %q is not an absolute url", c.JwksURL))
	}
	if c.Issuer == "" {
		errs = append(errs, errors.New("idp issuer is required"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("idp client id is required"))
	}
	if c.MinInterval <= 0 {
		errs = append(errs, errors.New("idp jwks refresh interval must be positive"))
	}
	return errors.Join(errs...)
}
