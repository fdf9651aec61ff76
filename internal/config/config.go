// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full application configuration.
type Config struct {
	App struct {
		Name        string `envconfig:"APP_NAME" default:"facturador"`
		Environment string `envconfig:"APP_ENV" default:"development"`
	}

	HTTP struct {
		Host            string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
		Port            int           `envconfig:"HTTP_PORT" default:"8080"`
		ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
		WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"facturador"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

		MaxConns         int32         `envconfig:"DB_MAX_CONNS" default:"25"`
		MinConns         int32         `envconfig:"DB_MIN_CONNS" default:"5"`
		StatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"30s"`
	}

	Auth struct {
		// JWTSecret signs and verifies API tokens (HMAC). Empty disables
		// authentication, for local development only.
		JWTSecret string        `envconfig:"AUTH_JWT_SECRET"`
		TokenTTL  time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
	}

	Log struct {
		Level       string `envconfig:"LOG_LEVEL" default:"info"`
		Development bool   `envconfig:"LOG_DEV" default:"false"`
	}
}

// ConnectionString builds the PostgreSQL DSN.
func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}
