// Package config loads service configuration from, in increasing priority:
// built-in defaults, config.yaml, a .env file and CATALOG_* environment
// variables. Environment keys map to config paths by lower-casing and
// replacing "_" with ".", so CATALOG_STORE_DRIVER sets store.driver.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "CATALOG_"

	DriverMemory   = "memory"
	DriverRemote   = "remote"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`
	Cache   CacheConfig   `koanf:"cache"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type HTTPConfig struct {
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `koanf:"readheadertimeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdowntimeout" validate:"gt=0"`
	// WriteLimit is the number of mutating requests one client IP may make
	// per minute. Zero disables the limit.
	WriteLimit int `koanf:"writelimit" validate:"min=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory remote postgres"`
	// Latency turns on the simulated per-operation delay of the memory store.
	Latency  bool           `koanf:"latency"`
	Remote   RemoteConfig   `koanf:"remote"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type RemoteConfig struct {
	BaseURL string        `koanf:"baseurl" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Breaker BreakerConfig `koanf:"breaker"`
}

type BreakerConfig struct {
	Failures    uint32        `koanf:"failures" validate:"gt=0"`
	OpenTimeout time.Duration `koanf:"opentimeout" validate:"gt=0"`
}

type PostgresConfig struct {
	DSN  string `koanf:"dsn"`
	Seed bool   `koanf:"seed"`
}

type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Addr    string        `koanf:"addr"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

func defaults() map[string]any {
	return map[string]any{
		"http.port":                        8082,
		"http.readheadertimeout":           "5s",
		"http.shutdowntimeout":             "10s",
		"http.writelimit":                  120,
		"log.level":                        "info",
		"store.driver":                     DriverMemory,
		"store.latency":                    false,
		"store.remote.timeout":             "3s",
		"store.remote.breaker.failures":    5,
		"store.remote.breaker.opentimeout": "10s",
		"store.postgres.seed":              true,
		"cache.enabled":                    false,
		"cache.addr":                       "localhost:6379",
		"cache.ttl":                        "5m",
		"metrics.enabled":                  false,
	}
}

// Paths names the optional files Load reads. Missing files are skipped.
type Paths struct {
	YAML   string
	DotEnv string
}

var DefaultPaths = Paths{YAML: "config.yaml", DotEnv: ".env"}

func Load(paths Paths) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if paths.YAML != "" {
		if err := k.Load(file.Provider(paths.YAML), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", paths.YAML, err)
		}
	}

	if paths.DotEnv != "" {
		envFile, err := godotenv.Read(paths.DotEnv)
		switch {
		case err == nil:
			m := make(map[string]any, len(envFile))
			for key, value := range envFile {
				if strings.HasPrefix(key, EnvPrefix) {
					m[envKey(key)] = value
				}
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return cfg, fmt.Errorf("load %s: %w", paths.DotEnv, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("read %s: %w", paths.DotEnv, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverRemote:
		if c.Store.Remote.BaseURL == "" {
			return errors.New("store.remote.baseurl is required for the remote driver")
		}
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn is required for the postgres driver")
		}
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return errors.New("cache.addr is required when the cache is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Token == "" {
		return errors.New("metrics.token is required when metrics are enabled")
	}
	return nil
}

// String renders the configuration with secrets masked.
func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "http.port=%d log.level=%s store.driver=%s", c.HTTP.Port, c.Log.Level, c.Store.Driver)
	switch c.Store.Driver {
	case DriverRemote:
		fmt.Fprintf(&b, " store.remote.baseurl=%s", c.Store.Remote.BaseURL)
	case DriverPostgres:
		b.WriteString(" store.postgres.dsn=***")
	}
	fmt.Fprintf(&b, " cache.enabled=%t metrics.enabled=%t", c.Cache.Enabled, c.Metrics.Enabled)
	return b.String()
}
