package config

import (
	"fmt"
	"strings"
	"time"
)

// TelemetryConfig switches OTLP trace export on and tells where to send spans.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

type TracesConfig struct {
	OtlpHttp OtlpHttpConfig `koanf:"otlphttp"`
	// SampleRatio is the share of root traces kept, in (0, 1]. Zero samples everything.
	SampleRatio float64 `koanf:"sampleratio"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Telemetry ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	if c.Enabled {
		o := c.Traces.OtlpHttp
		b.WriteString(fmt.Sprintf("  traces: otlphttp://%s insecure=%t timeout=%s sampleratio=%g\n",
			o.Endpoint, o.Insecure, o.Timeout, c.Traces.SampleRatio))
	}
	return b.String()
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("telemetry.traces.otlphttp.endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry.traces.otlphttp.timeout must be greater than zero")
	}
	if r := c.Traces.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.traces.sampleratio must be within [0, 1], got %g", r)
	}
	return nil
}
