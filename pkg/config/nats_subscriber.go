package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SubscriberConfig describes a durable JetStream pull consumer and the worker pool draining it.
type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
	// AckWait is how long the server waits for an ack before redelivering. Zero keeps the server default.
	AckWait time.Duration `koanf:"ackwait"`
	// MaxDeliver caps deliveries of one message. Zero or less means unlimited.
	MaxDeliver int `koanf:"maxdeliver"`
}

func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d, workers: %d\n", c.Batch, c.Workers))
	b.WriteString(fmt.Sprintf("  fetch timeout: %s, idle interval: %s\n", c.Timeout, c.Interval))
	b.WriteString(fmt.Sprintf("  ackwait: %s, maxdeliver: %d\n", c.AckWait, c.MaxDeliver))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	var errs []error
	for name, value := range map[string]string{"stream": c.Stream, "subject": c.Subject, "consumer": c.Consumer} {
		if value == "" {
			errs = append(errs, fmt.Errorf("subscriber.%s is not configured", name))
		}
	}
	if c.Batch <= 0 || c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("subscriber batch and workers must be positive, got %d and %d", c.Batch, c.Workers))
	}
	if c.Timeout <= 0 || c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("subscriber timeout and interval must be positive"))
	}
	if c.AckWait < 0 {
		errs = append(errs, fmt.Errorf("subscriber.ackwait cannot be negative"))
	}
	return errors.Join(errs...)
}
