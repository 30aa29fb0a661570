package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/services"
	"budget/internal/storage"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// Result is an assembled backend.
type Result struct {
	Service *services.BudgetService
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher   *amqp.Client
	Projections *cache.LRUCache[services.Projection]
	Cleanup     CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	persister, err := f.createPersister(config)
	if err != nil {
		return nil, err
	}

	repo, err := storage.NewRepository(ctx, persister)
	if err != nil {
		persister.Close()
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	// AMQP is optional; budgets are still saved without it
	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	projections := cache.NewLRUCache[services.Projection](config.ProjectionCacheSize, config.ProjectionCacheTTL)

	var svc *services.BudgetService
	if publisher != nil {
		svc = services.NewBudgetService(repo, publisher, projections)
	} else {
		svc = services.NewBudgetService(repo, nil, projections)
	}

	f.logger.Info("Initialized budget backend",
		"type", config.Type,
		"budgets", len(repo.Budgets()),
		"amqp_enabled", publisher != nil)

	return &Result{
		Service:     svc,
		Publisher:   publisher,
		Projections: projections,
		Cleanup:     svc.Close,
	}, nil
}

func (f *DefaultFactory) createPersister(config Config) (storage.Persister, error) {
	switch config.Type {
	case DirectoryBackend:
		p, err := storage.NewDirectoryPersister(config.BudgetDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize budget directory: %w", err)
		}
		f.logger.Info("Using directory backend", "dir", config.BudgetDir)
		return p, nil
	case SQLiteBackend:
		p, err := storage.NewSQLitePersister(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Using SQLite backend", "db_path", config.SQLiteDBPath)
		return p, nil
	}
	return nil, errors.New("unsupported backend type: " + config.Type.String())
}
