package config

import (
	"time"

	"github.com/screepskit/screepskit/internal/core/client"
)

// Config represents the complete application configuration. Values are
// resolved in order: built-in defaults, config file, environment variables
// (SCREEPS_ prefix), runtime overrides.
type Config struct {
	Client  ClientConfig  `mapstructure:"client"`
	Store   StoreConfig   `mapstructure:"store"`
	Insight InsightConfig `mapstructure:"insight"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
}

// ClientConfig describes the game server to talk to.
type ClientConfig struct {
	Host     string        `mapstructure:"host"`
	Secure   bool          `mapstructure:"secure"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Token    string        `mapstructure:"token"`
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
}

// ToClient converts the section into the core client configuration.
func (c ClientConfig) ToClient() client.Config {
	return client.Config{
		Token:    c.Token,
		Email:    c.Email,
		Password: c.Password,
		Host:     c.Host,
		Secure:   c.Secure,
		Timeout:  c.Timeout,
	}
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	// Enabled controls whether rate-limit state is persisted between runs.
	Enabled   bool   `mapstructure:"enabled"`
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// InsightConfig tunes the player insight queries.
type InsightConfig struct {
	// Concurrency caps in-flight room requests during resource scans.
	Concurrency int `mapstructure:"concurrency"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether /metrics is exposed by the status server
	Enabled bool `mapstructure:"enabled"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}
