package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HTTPConfig configures the public HTTP listener of a service.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Server ---\n")
	b.WriteString(fmt.Sprintf("  port: %d, maxHeaderBytes: %d\n", c.Port, c.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  timeouts: read=%s write=%s idle=%s readHeader=%s\n",
		c.Timeout.Read, c.Timeout.Write, c.Timeout.Idle, c.Timeout.ReadHeader))
	return b.String()
}

func (c *HTTPConfig) Validate() error {
	if err := validPort(c.Port); err != nil {
		return fmt.Errorf("server.port: %w", err)
	}
	if c.MaxHeaderBytes < 0 {
		return fmt.Errorf("server.maxHeaderBytes cannot be negative")
	}
	for name, d := range map[string]time.Duration{
		"read":       c.Timeout.Read,
		"write":      c.Timeout.Write,
		"idle":       c.Timeout.Idle,
		"readHeader": c.Timeout.ReadHeader,
	} {
		if d <= 0 {
			return fmt.Errorf("server.timeout.%s must be greater than zero, got %v", name, d)
		}
	}
	if c.Timeout.ReadHeader > c.Timeout.Read {
		return fmt.Errorf("server.timeout.readHeader (%v) cannot exceed server.timeout.read (%v)", c.Timeout.ReadHeader, c.Timeout.Read)
	}
	return nil
}

// GrpcServerConfig configures the gRPC listener that serves the health service.
type GrpcServerConfig struct {
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

func (c *GrpcServerConfig) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("grpc.port must be a number, got %q", c.Port)
	}
	if err := validPort(port); err != nil {
		return fmt.Errorf("grpc.port: %w", err)
	}
	return nil
}

func validPort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	return nil
}
