package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/pflag"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/worker"
)

func main() {
	consume := pflag.Bool("consume", false, "also log the budget events found on the queue")
	runOnly := pflag.Bool("once", false, "publish the current month and exit")
	pflag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting budget-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	cli.ApplySettings(cfg, cli.OpenSettings(logger.WithComponent(log.ComponentSettings), cfg.SettingsFile))
	res := cli.InitBackend(context.Background(), logger, cfg)

	notifier := worker.NewNotifier(logger.Logger)
	var publisher worker.MovementsPublisher = worker.NewLocalPublisher(notifier)
	if res.Publisher != nil {
		publisher = res.Publisher
	} else {
		logger.Info("AMQP not configured, movements are only logged")
	}

	movements := worker.NewMovementsWorker(res.Service, publisher, cfg.MovementsAccount, cfg.MovementsSchedule)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		movements.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// catch up on the current month in case the scheduled run was missed
	if _, err := movements.RunOnce(ctx, int(time.Now().Month())); err != nil {
		logger.Error("Startup movements run failed", log.FieldError, err)
	}
	if *runOnly {
		_ = res.Cleanup()
		return
	}

	if err := movements.Start(ctx); err != nil {
		logger.Error("Failed to schedule movements worker", log.FieldError, err)
		os.Exit(1)
	}

	if *consume && res.Publisher != nil {
		go func() {
			if err := res.Publisher.Consume(ctx, notifier.Handle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
