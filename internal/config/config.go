// Package config provides configuration management for maildue.
package config

import (
	"time"
)

// Config is the root configuration structure for maildue.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Events   EventsConfig   `mapstructure:"events"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Locale   LocaleConfig   `mapstructure:"locale"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind the server to
	Host string `mapstructure:"host"`

	// Port to listen on
	Port int `mapstructure:"port"`

	// Enable CORS
	CORS CORSConfig `mapstructure:"cors"`

	// Request timeout
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Maximum request body size in bytes
	MaxBodySize int64 `mapstructure:"max_body_size"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enable CORS
	Enabled bool `mapstructure:"enabled"`

	// Allowed origins (use ["*"] for all)
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Allowed methods
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// Allowed headers
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// Exposed headers
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// Allow credentials
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// Max age for preflight cache
	MaxAge time.Duration `mapstructure:"max_age"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string `mapstructure:"path"`

	// Enable WAL mode (recommended)
	WALMode bool `mapstructure:"wal_mode"`

	// Cache size in KB (negative for KB, positive for pages)
	CacheSize int `mapstructure:"cache_size"`

	// Busy timeout in milliseconds
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// Enable foreign keys
	ForeignKeys bool `mapstructure:"foreign_keys"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// Connection max lifetime
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EngineConfig holds instance engine settings.
type EngineConfig struct {
	// How often the runner regenerates today's instances and reclassifies
	// stale pending ones
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// Run the missed-date backfill during startup
	BackfillOnStart bool `mapstructure:"backfill_on_start"`

	// Upper bound on how many calendar days a single backfill may cover
	BackfillLimitDays int `mapstructure:"backfill_limit_days"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	// How long to keep completed/failed events
	Retention time.Duration `mapstructure:"retention"`

	// How often to poll for pending events
	ProcessInterval time.Duration `mapstructure:"process_interval"`

	// How often to cleanup old events
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// NotifyConfig holds WebSocket badge-push settings.
type NotifyConfig struct {
	// Enable the WebSocket notifier (UI falls back to polling when off)
	Enabled bool `mapstructure:"enabled"`

	// Maximum concurrent WebSocket connections
	MaxConnections int `mapstructure:"max_connections"`

	// Per-client outbound message buffer
	SendBuffer int `mapstructure:"send_buffer"`
}

// LocaleConfig holds localization settings for placeholder rendering.
type LocaleConfig struct {
	// Default language tag for schedules that do not set one ("en" or "ar")
	DefaultLanguage string `mapstructure:"default_language"`

	// Department name substituted into subject/body templates
	Department string `mapstructure:"department"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Log format (json, console)
	Format string `mapstructure:"format"`

	// Include caller info
	Caller bool `mapstructure:"caller"`

	// Include timestamp
	Timestamp bool `mapstructure:"timestamp"`

	// Output file (empty for stdout)
	Output string `mapstructure:"output"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return s.Host + ":" + itoa(s.Port)
}

// itoa converts int to string without importing strconv.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	negative := i < 0
	if negative {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if negative {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
