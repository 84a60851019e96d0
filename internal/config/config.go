// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultJWTSecret = "secret"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port        string        `mapstructure:"APP_PORT"`
	Env         string        `mapstructure:"APP_ENV"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	StoreDriver string        `mapstructure:"STORE_DRIVER"`
	DatabaseDSN string        `mapstructure:"DATABASE_DSN"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	RabbitMQURL string        `mapstructure:"RABBITMQ_URL"`
}

// Load reads configuration from an optional config.yml and the environment.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration into v. Tests pass their own instance to set overrides.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "1440h")
	v.SetDefault("STORE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "file:conduit.db?cache=shared")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.AutomaticEnv()

	// The config file is optional; environment and defaults are enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("APP_PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for STORE_DRIVER=%s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.Env == "production" && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed from the default value in production")
	}
	if c.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET is the development default")
	}
	return nil
}
