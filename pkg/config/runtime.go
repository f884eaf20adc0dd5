package config

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"time"
)

// Log levels understood by bootstrap.NewLogger. Empty means info.
var logLevels = []string{"", "debug", "info", "warn", "error"}

type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return fmt.Sprintf("\n--- Log ---\n  level: %s\n", c.Level)
}

func (c *LogConfig) Validate() error {
	if !slices.Contains(logLevels, c.Level) {
		return fmt.Errorf("log.level must be one of debug, info, warn or error, got %q", c.Level)
	}
	return nil
}

// PProfConfig exposes net/http/pprof on a separate, usually loopback, address.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- PProf ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  address: %s\n", c.Addr))
	return b.String()
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("pprof.addr must be host:port: %w", err)
	}
	return nil
}

// ShutdownConfig bounds each graceful stop step (HTTP drain, gRPC stop, tracer flush).
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return fmt.Sprintf("\n--- Shutdown ---\n  timeout: %s\n", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown.timeout must be greater than zero")
	}
	return nil
}
