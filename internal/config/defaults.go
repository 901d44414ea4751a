package config

import "time"

// Default configuration values.
const (
	// Server defaults.
	DefaultHost         = "localhost"
	DefaultPort         = 8430
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultMaxBodySize  = 1 * 1024 * 1024 // 1MB

	// Database defaults.
	DefaultDBPath       = "maildue.db"
	DefaultCacheSize    = -64000 // 64MB
	DefaultBusyTimeout  = 5 * time.Second
	DefaultMaxOpenConns = 1 // SQLite works best with single writer
	DefaultMaxIdleConns = 1

	// Engine defaults.
	DefaultSweepInterval     = 30 * time.Second
	DefaultBackfillLimitDays = 365

	// Events defaults.
	DefaultEventRetention  = 7 * 24 * time.Hour
	DefaultProcessInterval = 1 * time.Second
	DefaultCleanupInterval = 1 * time.Hour

	// Notify defaults.
	DefaultMaxConnections = 100
	DefaultSendBuffer     = 64

	// Locale defaults.
	DefaultLanguage = "en"

	// Logging defaults.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MaxBodySize:  DefaultMaxBodySize,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Actor"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			},
		},
		Database: DatabaseConfig{
			Path:            DefaultDBPath,
			WALMode:         true,
			CacheSize:       DefaultCacheSize,
			BusyTimeout:     DefaultBusyTimeout,
			ForeignKeys:     true,
			MaxOpenConns:    DefaultMaxOpenConns,
			MaxIdleConns:    DefaultMaxIdleConns,
			ConnMaxLifetime: 0, // No limit
		},
		Engine: EngineConfig{
			SweepInterval:     DefaultSweepInterval,
			BackfillOnStart:   true,
			BackfillLimitDays: DefaultBackfillLimitDays,
		},
		Events: EventsConfig{
			Retention:       DefaultEventRetention,
			ProcessInterval: DefaultProcessInterval,
			CleanupInterval: DefaultCleanupInterval,
		},
		Notify: NotifyConfig{
			Enabled:        true,
			MaxConnections: DefaultMaxConnections,
			SendBuffer:     DefaultSendBuffer,
		},
		Locale: LocaleConfig{
			DefaultLanguage: DefaultLanguage,
			Department:      "",
		},
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			Format:    DefaultLogFormat,
			Caller:    false,
			Timestamp: true,
		},
	}
}
