// Package config loads the budget services' settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Data backends.
const (
	BackendDirectory = "directory"
	BackendSQLite    = "sqlite"
)

type Config struct {
	// HTTP server
	Port               string
	RateLimitPerMinute int

	LogLevel string

	// Storage
	DataBackend  string
	BudgetDir    string
	SQLiteDBPath string
	SettingsFile string

	// AMQP, optional: events are not published when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Projection cache
	ProjectionCacheSize int
	ProjectionCacheTTL  time.Duration

	// Worker
	MovementsSchedule string
	MovementsAccount  string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", BackendDirectory),
		BudgetDir:    getEnv("BUDGET_DIR", "./data/budgets"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),
		SettingsFile: getEnv("SETTINGS_FILE", "./data/settings.json"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_events"),

		ProjectionCacheSize: getEnvInt("PROJECTION_CACHE_SIZE", 256),
		ProjectionCacheTTL:  getEnvDuration("PROJECTION_CACHE_TTL", 10*time.Minute),

		MovementsSchedule: getEnv("MOVEMENTS_SCHEDULE", "0 9 1 * *"),
		MovementsAccount:  getEnv("MOVEMENTS_ACCOUNT", "Budget"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	switch c.DataBackend {
	case BackendDirectory:
		if c.BudgetDir == "" {
			errors = append(errors, "budget directory cannot be empty when using directory backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendDirectory, BackendSQLite))
	}

	if c.SettingsFile == "" {
		errors = append(errors, "settings file path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ProjectionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid projection cache size %d: must be at least 1", c.ProjectionCacheSize))
	}
	if c.ProjectionCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid projection cache TTL %v: must not be negative", c.ProjectionCacheTTL))
	}

	if _, err := cron.ParseStandard(c.MovementsSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid movements schedule '%s': %v", c.MovementsSchedule, err))
	}
	if c.MovementsAccount == "" {
		errors = append(errors, "movements account cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
