// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable, e.g. INVENTRA_DB_DSN.
const EnvPrefix = "INVENTRA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Config is the complete server configuration.
type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig
	Bootstrap   BootstrapConfig
}

// Load reads the configuration and checks cross-field rules.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("%s_DB_DSN is required", EnvPrefix)
	}
	if c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("%s_DB_MIN_CONNS (%d) exceeds %s_DB_MAX_CONNS (%d)",
			EnvPrefix, c.DB.MinConns, EnvPrefix, c.DB.MaxConns)
	}
	if strings.TrimSpace(c.Bootstrap.MainBranchName) == "" {
		return fmt.Errorf("%s_BOOTSTRAP_MAIN_BRANCH_NAME must not be blank", EnvPrefix)
	}
	return nil
}

// AppConfig is the process and HTTP listener setup.
type AppConfig struct {
	Env             string        `envconfig:"ENV" default:"development"`
	Port            string        `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	Version         string        `envconfig:"VERSION" default:"dev"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MetricsEnabled  bool          `envconfig:"METRICS_ENABLED" default:"true"`
}

// IsDev reports whether the process runs in development mode.
func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// DBConfig is the PostgreSQL pool and transaction setup.
type DBConfig struct {
	DSN              string        `envconfig:"DSN" required:"true"`
	MaxConns         int32         `envconfig:"MAX_CONNS" default:"25"`
	MinConns         int32         `envconfig:"MIN_CONNS" default:"5"`
	MaxConnLifetime  time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime  time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"30s"`
	AutoMigrate      bool          `envconfig:"AUTO_MIGRATE" default:"false"`
}

// RedisConfig configures the price cache. An empty address disables it.
type RedisConfig struct {
	Addr      string        `envconfig:"ADDR"`
	Password  string        `envconfig:"PASSWORD"`
	DB        int           `envconfig:"DB" default:"0"`
	PriceTTL  time.Duration `envconfig:"PRICE_TTL" default:"10m"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" default:"inventra:prices"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// IdempotencyConfig controls Idempotency-Key handling.
type IdempotencyConfig struct {
	Enabled         bool          `envconfig:"ENABLED" default:"true"`
	TTL             time.Duration `envconfig:"TTL" default:"24h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`
}

// BootstrapConfig seeds data the engine cannot run without.
type BootstrapConfig struct {
	MainBranchName string `envconfig:"MAIN_BRANCH_NAME" default:"Main Store"`
}
