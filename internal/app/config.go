package app

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	PGDSN        string `envconfig:"PG_DSN" default:"postgres://tm:tm@localhost:5432/tm?sslmode=disable"`

	BcryptCost int `envconfig:"BCRYPT_COST" default:"12"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.StoreBackend != BackendMemory && cfg.StoreBackend != BackendPostgres {
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
