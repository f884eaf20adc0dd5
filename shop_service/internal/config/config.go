package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/abgdnv/gomarket/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GrpcServer config.GrpcServerConfig `koanf:"grpc"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Redis      config.RedisConfig      `koanf:"redis"`
	Cache      config.CacheConfig      `koanf:"cache"`
	Lease      config.LeaseConfig      `koanf:"lease"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Reclear    config.ReclearConfig    `koanf:"reclear"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Checkout   struct {
		// DrainTimeout bounds reading the cart before the debit.
		DrainTimeout time.Duration `koanf:"draintimeout"`
		// AfterDebitTimeout bounds order persistence and cart clearing once the balance is debited.
		AfterDebitTimeout time.Duration `koanf:"afterdebittimeout"`
	} `koanf:"checkout"`
	Services struct {
		Payment config.HTTPClientConfig `koanf:"payment"`
	} `koanf:"services"`
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
	b.WriteString(c.Redis.String())
	b.WriteString(c.Cache.String())
	b.WriteString(c.Lease.String())

	b.WriteString("\n--- Checkout ---\n")
	b.WriteString(fmt.Sprintf("  checkout.draintimeout: %s\n", c.Checkout.DrainTimeout))
	b.WriteString(fmt.Sprintf("  checkout.afterdebittimeout: %s\n", c.Checkout.AfterDebitTimeout))
	b.WriteString(fmt.Sprintf("  checkout.budget: %s\n", c.CheckoutBudget()))
	b.WriteString(c.Reclear.String())

	b.WriteString("\n--- External Services ---\n")
	b.WriteString(fmt.Sprintf("  services.payment.baseurl: %s\n", c.Services.Payment.BaseURL))
	b.WriteString(fmt.Sprintf("  services.payment.timeout: %s\n", c.Services.Payment.Timeout))
	b.WriteString(fmt.Sprintf("  services.payment.token: %t\n", c.Services.Payment.Token != ""))
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Nats.String())
	if c.Nats.Enabled {
		b.WriteString(c.Subscriber.String())
	}

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
		&c.Redis,
		&c.Cache,
		&c.Lease,
		&c.Log,
		&c.PProf,
		&c.Nats,
		&c.Reclear,
		&c.Telemetry,
		&c.Shutdown,
		&c.Resilience,
		&c.Services.Payment,
	}
	if c.Nats.Enabled {
		validators = append(validators, &c.Subscriber)
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Checkout.DrainTimeout <= 0 {
		return fmt.Errorf("checkout.draintimeout must be greater than 0")
	}
	if c.Checkout.AfterDebitTimeout <= 0 {
		return fmt.Errorf("checkout.afterdebittimeout must be greater than 0")
	}
	budget := c.CheckoutBudget()
	if c.Lease.Backend == config.LeaseBackendRedis && c.Lease.TTL < budget+leaseMargin {
		return fmt.Errorf("lease.ttl %s must cover the checkout budget %s plus %s", c.Lease.TTL, budget, leaseMargin)
	}
	if c.HTTPServer.Timeout.Write <= budget {
		return fmt.Errorf("server.timeout.write %s must exceed the checkout budget %s", c.HTTPServer.Timeout.Write, budget)
	}
	return nil
}

// leaseMargin covers redis round trips and clock drift between instances.
const leaseMargin = 2 * time.Second

// CheckoutBudget is the longest a checkout may run: lease wait, cart drain, the debit call
// and the after-debit phase.
func (c *Config) CheckoutBudget() time.Duration {
	return c.Lease.Wait + c.Checkout.DrainTimeout + c.Services.Payment.Timeout + c.Checkout.AfterDebitTimeout
}
