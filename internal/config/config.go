package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the board service.
// Environment variables are parsed from the HARBORPOST_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: postgres, sqlite or memory
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/harborpost.db"`

	// Feed cache; empty REDIS_URL disables it
	RedisURL           string `envconfig:"REDIS_URL" default:""`
	FeedCacheTTLSecs   int    `envconfig:"FEED_CACHE_TTL_SECONDS" default:"30"`
	StartupHealthSecs  int    `envconfig:"STARTUP_HEALTH_SECONDS" default:"30"`
	ShutdownGraceSecs  int    `envconfig:"SHUTDOWN_GRACE_SECONDS" default:"10"`
}

// ResolveDefaults validates the driver selection and derives it when left
// on "auto": a configured Postgres DSN selects postgres, otherwise sqlite.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowed := map[string]bool{"postgres": true, "sqlite": true, "memory": true}
	if !allowed[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: HARBORPOST_HTTP_PORT, HARBORPOST_POSTGRES_DSN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("HARBORPOST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Bool("feed_cache", cfg.RedisURL != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
