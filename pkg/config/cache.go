package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CacheConfig holds per-region settings of the read-through cache.
type CacheConfig struct {
	Regions map[string]CacheRegionConfig `koanf:"regions"`
}

type CacheRegionConfig struct {
	TTL    time.Duration `koanf:"ttl"`
	Jitter time.Duration `koanf:"jitter"`
}

// Region returns the settings of the named region, or def when the region is not configured.
func (c *CacheConfig) Region(name string, def CacheRegionConfig) CacheRegionConfig {
	if r, ok := c.Regions[name]; ok && r.TTL > 0 {
		return r
	}
	return def
}

// String returns a string representation of the cache configuration.
func (c *CacheConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cache ---\n")
	names := make([]string, 0, len(c.Regions))
	for name := range c.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := c.Regions[name]
		b.WriteString(fmt.Sprintf("  regions.%s.ttl: %s\n", name, r.TTL))
		b.WriteString(fmt.Sprintf("  regions.%s.jitter: %s\n", name, r.Jitter))
	}
	return b.String()
}

func (c *CacheConfig) Validate() error {
	for name, r := range c.Regions {
		if r.TTL <= 0 {
			return fmt.Errorf("cache region %q: ttl must be greater than 0", name)
		}
		if r.Jitter < 0 {
			return fmt.Errorf("cache region %q: jitter must not be negative", name)
		}
	}
	return nil
}
