// Package cli provides the initialization shared by cmd/budget,
// cmd/budget-api and cmd/budget-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/settings"
)

// SetupLogger builds the process logger and makes it the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenSettings opens the settings file, falling back to in-memory settings
// when it cannot be read.
func OpenSettings(logger *log.Logger, path string) settings.Store {
	store, err := settings.OpenFileStore(path)
	if err != nil {
		logger.Warn("Failed to open settings, using defaults", log.FieldError, err, "path", path)
		return settings.NewMemoryStore()
	}
	return store
}

// ApplySettings lets the budget directory stored in settings override the
// environment.
func ApplySettings(cfg *config.Config, store settings.Store) {
	cfg.BudgetDir = settings.String(store, settings.KeyBudgetDir, cfg.BudgetDir)
}

// InitBackend assembles storage, events and the budget service.
// Exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.Result {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "type", backendCfg.Type)
		os.Exit(1)
	}
	return res
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that is cancelled on shutdown signals and a channel
// closed once cleanup has run.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
