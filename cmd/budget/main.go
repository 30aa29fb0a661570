// Command budget manages household budgets from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"budget/internal/cli"
	"budget/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn"), log.ComponentCLI)

	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.OpenSettings(logger.WithComponent(log.ComponentSettings), cfg.SettingsFile)
	cli.ApplySettings(cfg, store)

	ctx := context.Background()
	res := cli.InitBackend(ctx, logger, cfg)

	a := &app{svc: res.Service, settings: store, out: os.Stdout, errOut: os.Stderr}
	err := a.run(ctx, os.Args[1:])
	if cerr := res.Cleanup(); cerr != nil {
		logger.Warn("Backend cleanup error", log.FieldError, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "budget:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
