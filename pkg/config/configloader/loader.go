package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

const (
	defaultConfigFile = "config.yaml"
	dotEnvFile        = ".env"
)

// Load builds the service configuration from, in increasing priority: a YAML file,
// a .env file and the process environment. Environment keys are prefixed with
// <SERVICE>_ and use "_" as the path separator, e.g. SHOP_DATABASE_URL.
//
// The YAML file defaults to config.yaml, which may be absent. A file named by
// <SERVICE>_CONFIG_FILE must exist.
func Load[T Validator](serviceName string) (T, error) {
	var cfg T
	k := koanf.New(".")
	prefix := strings.ToUpper(serviceName) + "_"
	keyOf := envKeyMapper(prefix)

	if err := loadYAML(k, prefix); err != nil {
		return cfg, err
	}
	if err := loadDotEnv(k, prefix, keyOf); err != nil {
		return cfg, err
	}
	if err := k.Load(env.Provider(prefix, ".", keyOf), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKeyMapper turns SHOP_CACHE_REGIONS into cache.regions.
func envKeyMapper(prefix string) func(string) string {
	lower := strings.ToLower(prefix)
	return func(key string) string {
		key = strings.TrimPrefix(strings.ToLower(key), lower)
		return strings.ReplaceAll(key, "_", ".")
	}
}

func loadYAML(k *koanf.Koanf, prefix string) error {
	path, explicit := os.LookupEnv(prefix + "CONFIG_FILE")
	if !explicit || path == "" {
		path, explicit = defaultConfigFile, false
	}
	err := k.Load(file.Provider(path), yaml.Parser())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		slog.Debug("no config file, using environment only", "file", path)
		return nil
	default:
		return fmt.Errorf("load config file %q: %w", path, err)
	}
}

// loadDotEnv only picks up keys carrying the service prefix, so one .env can serve several services.
func loadDotEnv(k *koanf.Koanf, prefix string, keyOf func(string) string) error {
	values, err := godotenv.Read(dotEnvFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		slog.Warn("skipping unreadable .env file", "error", err)
		return nil
	}
	scoped := make(map[string]any, len(values))
	for key, value := range values {
		if strings.HasPrefix(strings.ToUpper(key), prefix) {
			scoped[keyOf(key)] = value
		}
	}
	if err := k.Load(confmap.Provider(scoped, "."), nil); err != nil {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	return nil
}
