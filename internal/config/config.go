package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"soulboard/internal/config/configs"
)

// Storage driver names accepted by Config.Storage.
const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// Config aggregates all configuration sections for the application. Fields
// are populated from environment variables using the caarlos0/env library.
// The nested structs are tagged with envPrefix so their fields are parsed
// with the given prefix. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	// Storage selects the registry driver: "postgres" or "bolt".
	Storage string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// HTTP holds configuration for the HTTP server. Environment variables
	// prefixed with HTTP_ will populate this struct.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger. Environment variables prefixed
	// with LOG_ will populate this struct.
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the PostgreSQL connection. Environment variables
	// prefixed with PSQL_ will populate this struct.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Bolt configures the embedded registry file. Environment variables
	// prefixed with BOLT_ will populate this struct.
	Bolt configs.Bolt `envPrefix:"BOLT_"`

	// Transfer configures the external asset-transfer gateway client.
	// Environment variables prefixed with TRANSFER_ will populate this
	// struct.
	Transfer configs.Transfer `envPrefix:"TRANSFER_"`
}

// Load reads configuration from environment variables into a Config. If
// parsing fails or the storage driver is unknown, an error is returned. All
// fields are loaded with their specified defaults when no environment
// variable is provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	switch cfg.Storage {
	case DriverPostgres, DriverBolt:
	default:
		return cfg, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}
	return cfg, nil
}
