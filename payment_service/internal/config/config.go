package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/pkg/config/configloader"
	"github.com/shopspring/decimal"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GrpcServer config.GrpcServerConfig `koanf:"grpc"`
	Database   config.DatabaseConfig   `koanf:"database"`
	IdP        config.IdP              `koanf:"idp"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Balance    BalanceConfig           `koanf:"balance"`
}

// BalanceConfig controls how unknown users are handled.
type BalanceConfig struct {
	// AutoProvision opens a balance of Initial for users seen for the first time.
	AutoProvision bool `koanf:"autoprovision"`
	// Initial is a decimal string such as "500" or "499.50".
	Initial string `koanf:"initial"`
}

// InitialAmount parses Initial. Validate guarantees it succeeds.
func (c *BalanceConfig) InitialAmount() decimal.Decimal {
	d, err := decimal.NewFromString(c.Initial)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (c *BalanceConfig) Validate() error {
	if !c.AutoProvision {
		return nil
	}
	d, err := decimal.NewFromString(c.Initial)
	if err != nil {
		return fmt.Errorf("balance.initial is not a decimal: %w", err)
	}
	if d.IsNegative() {
		return fmt.Errorf("balance.initial cannot be negative")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(fmt.Sprintf("  grpc.port: %s\n", c.GrpcServer.Port))
	b.WriteString(fmt.Sprintf("  grpc.reflection: %t\n", c.GrpcServer.ReflectionEnabled))

	b.WriteString("\n--- Database Configuration ---\n")
	b.WriteString(fmt.Sprintf("  database.url: %s\n", config.MaskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))
	b.WriteString(fmt.Sprintf("  database.migrate: %t\n", c.Database.Migrate))

	b.WriteString("\n--- Balances ---\n")
	b.WriteString(fmt.Sprintf("  balance.autoprovision: %t\n", c.Balance.AutoProvision))
	b.WriteString(fmt.Sprintf("  balance.initial: %s\n", c.Balance.Initial))
	b.WriteString(c.IdP.String())

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))
	b.WriteString(c.Telemetry.String())

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.GrpcServer,
		&c.Database,
		&c.IdP,
		&c.Log,
		&c.PProf,
		&c.Telemetry,
		&c.Shutdown,
		&c.Balance,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
