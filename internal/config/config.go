package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Function FunctionConfig `mapstructure:"function"`
}

// ServerConfig contains the standalone HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// URL is a PostgreSQL connection string, either a URL or keyword/value DSN.
	URL string `mapstructure:"url" validate:"required,postgres_dsn"`

	// ReconnectInterval is how often the connectivity tracker retries
	// schema initialization while the database is unreachable.
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval" validate:"gt=0"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gt=0"`
}

// FunctionConfig contains settings for the serverless (Azure Functions custom
// handler) shell.
type FunctionConfig struct {
	Port        int    `mapstructure:"port"         validate:"gt=0,lt=65536"`
	RoutePrefix string `mapstructure:"route_prefix"`
}
