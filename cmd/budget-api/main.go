package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)
	cli.ApplySettings(cfg, cli.OpenSettings(logger.WithComponent(log.ComponentSettings), cfg.SettingsFile))

	res := cli.InitBackend(context.Background(), logger, cfg)

	caches := cache.NewManager()
	caches.Register(res.Projections)
	caches.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(cfg.Addr(), res.Service, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting budget API", "addr", cfg.Addr(), "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
