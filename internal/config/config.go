// Package config provides centralized configuration management for the row store.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/rowstore/internal/grid"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Write    WriteConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	IDs      IDConfig
	Seed     SeedConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the grid backend.
type StoreConfig struct {
	// Driver is the grid driver: memory, sqlite or postgres (default: memory)
	Driver string `env:"STORE_DRIVER" default:"memory"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// DATABASE_URL is accepted for compatibility.
	URL string `env:"STORE_URL" envAlt:"DATABASE_URL"`

	// SQLitePath is the database file for the sqlite driver (default: rowstore.db)
	SQLitePath string `env:"SQLITE_PATH" default:"rowstore.db"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// DefaultMaxRows is the row allocation of new sheets (default: 1000)
	DefaultMaxRows int `env:"STORE_DEFAULT_MAX_ROWS" default:"1000"`
}

// WriteConfig holds write path settings.
type WriteConfig struct {
	// MaxConcurrent is the number of writes admitted at once (default: 1).
	// Values above 1 allow concurrent read-modify-write sequences to interleave.
	MaxConcurrent int `env:"WRITE_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a write waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"WRITE_MAX_WAIT_TIME" default:"10s"`

	// MaxBodyBytes caps the size of a write request body (default: 10MB)
	MaxBodyBytes int64 `env:"WRITE_MAX_BODY_BYTES" default:"10485760"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or tint (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// IDConfig selects how ids are generated for records created without one.
type IDConfig struct {
	// Generator is uuid or ksid (default: uuid)
	Generator string `env:"ID_GENERATOR" default:"uuid"`
}

// SeedConfig points at a YAML file of tables to create on startup.
type SeedConfig struct {
	// File is the seed file path; empty disables seeding
	File string `env:"SEED_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// GridOptions converts the store settings into grid driver options.
func (c *StoreConfig) GridOptions() grid.Options {
	return grid.Options{
		URL:             c.URL,
		Path:            c.SQLitePath,
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
		DefaultMaxRows:  c.DefaultMaxRows,
	}
}
