// Package backend assembles the budget service from configuration: the
// persister, the optional AMQP publisher and the projection cache.
package backend

import (
	"fmt"
	"time"

	"budget/internal/config"
)

// BackendType selects where budget documents are persisted.
type BackendType string

const (
	DirectoryBackend BackendType = config.BackendDirectory
	SQLiteBackend    BackendType = config.BackendSQLite
)

func (t BackendType) String() string { return string(t) }

func (t BackendType) IsValid() bool {
	switch t {
	case DirectoryBackend, SQLiteBackend:
		return true
	}
	return false
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type BackendType

	BudgetDir    string
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	ProjectionCacheSize int
	ProjectionCacheTTL  time.Duration
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                backendType,
		BudgetDir:           appConfig.BudgetDir,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		AMQPURL:             appConfig.AMQPURL,
		AMQPExchange:        appConfig.AMQPExchange,
		AMQPQueue:           appConfig.AMQPQueue,
		ProjectionCacheSize: appConfig.ProjectionCacheSize,
		ProjectionCacheTTL:  appConfig.ProjectionCacheTTL,
	}, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case DirectoryBackend:
		if c.BudgetDir == "" {
			return fmt.Errorf("budget directory is required for directory backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{DirectoryBackend, SQLiteBackend}
}
