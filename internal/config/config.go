package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             string        `mapstructure:"port"`
	InternalPort     string        `mapstructure:"internal_port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	GracefulShutdown time.Duration `mapstructure:"graceful_shutdown"`
}

// CatalogConfig points at the static character catalog.
type CatalogConfig struct {
	Path          string        `mapstructure:"path"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

// StorageConfig selects the durable key-value driver.
type StorageConfig struct {
	Driver      string        `mapstructure:"driver"` // memory | sqlite | redis | postgres
	SQLitePath  string        `mapstructure:"sqlite_path"`
	RedisURL    string        `mapstructure:"redis_url"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	PostgresURL string        `mapstructure:"postgres_url"`
	OpTimeout   time.Duration `mapstructure:"op_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// GRPCConfig configures the grpc health endpoint; an empty port disables it.
type GRPCConfig struct {
	HealthPort string `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/potential-simulator")

	v.SetEnvPrefix("POTSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// defaults + env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.internal_port", "8081")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.graceful_shutdown", "10s")

	v.SetDefault("catalog.path", "data/potential.json")
	v.SetDefault("catalog.watch_interval", "5s")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "potential-simulator.db")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.redis_prefix", "potsim:")
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.op_timeout", "3s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("grpc.health_port", "")
}

// Validate validates the configuration and ensures required fields are present
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port == "" {
		errs = append(errs, "server.port is required")
	}
	if c.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required")
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for driver=sqlite")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			errs = append(errs, "storage.redis_url is required for driver=redis (set POTSIM_STORAGE_REDIS_URL)")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			errs = append(errs, "storage.postgres_url is required for driver=postgres (set POTSIM_STORAGE_POSTGRES_URL)")
		}
	default:
		errs = append(errs, "storage.driver must be one of: memory, sqlite, redis, postgres")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, "logging.format must be json or console")
	}

	timeouts := map[string]time.Duration{
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
		"server.request_timeout": c.Server.RequestTimeout,
		"storage.op_timeout":     c.Storage.OpTimeout,
	}
	for name, timeout := range timeouts {
		if timeout <= 0 {
			errs = append(errs, fmt.Sprintf("timeout '%s' must be positive, got %v", name, timeout))
		}
	}
	if c.Catalog.WatchInterval < 0 {
		errs = append(errs, "catalog.watch_interval must be >= 0 (0 disables reload)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
