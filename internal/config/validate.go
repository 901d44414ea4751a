package config

import (
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateEvents(&cfg.Events)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateLocale(&cfg.Locale)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateServer(cfg *ServerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.read_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.WriteTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.write_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.MaxBodySize < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.max_body_size",
			Message: "must be non-negative",
		})
	}

	if cfg.CORS.Enabled && cfg.CORS.AllowCredentials {
		for _, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" {
				errs = append(errs, ValidationError{
					Field:   "server.cors",
					Message: "security: allow_credentials=true with allowed_origins=[\"*\"] is insecure",
				})
				break
			}
		}
	}

	return errs
}

func validateDatabase(cfg *DatabaseConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "database.path",
			Message: "required",
		})
	}

	if cfg.BusyTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "database.busy_timeout",
			Message: "must be non-negative",
		})
	}

	return errs
}

func validateEngine(cfg *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.SweepInterval < time.Second {
		errs = append(errs, ValidationError{
			Field:   "engine.sweep_interval",
			Message: "must be at least 1 second",
		})
	}

	if cfg.BackfillLimitDays < 1 {
		errs = append(errs, ValidationError{
			Field:   "engine.backfill_limit_days",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateEvents(cfg *EventsConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.ProcessInterval < 100*time.Millisecond {
		errs = append(errs, ValidationError{
			Field:   "events.process_interval",
			Message: "must be at least 100ms to prevent high CPU usage",
		})
	}

	if cfg.CleanupInterval < time.Minute {
		errs = append(errs, ValidationError{
			Field:   "events.cleanup_interval",
			Message: "must be at least 1 minute",
		})
	}

	if cfg.Retention < time.Hour {
		errs = append(errs, ValidationError{
			Field:   "events.retention",
			Message: "must be at least 1 hour",
		})
	}

	return errs
}

func validateNotify(cfg *NotifyConfig) ValidationErrors {
	var errs ValidationErrors

	if !cfg.Enabled {
		return errs
	}

	if cfg.MaxConnections < 1 {
		errs = append(errs, ValidationError{
			Field:   "notify.max_connections",
			Message: "must be at least 1",
		})
	}

	if cfg.SendBuffer < 1 {
		errs = append(errs, ValidationError{
			Field:   "notify.send_buffer",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateLocale(cfg *LocaleConfig) ValidationErrors {
	var errs ValidationErrors

	validLanguages := map[string]bool{"en": true, "ar": true}
	if !validLanguages[cfg.DefaultLanguage] {
		errs = append(errs, ValidationError{
			Field:   "locale.default_language",
			Message: "must be 'en' or 'ar'",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'console'",
		})
	}

	return errs
}
