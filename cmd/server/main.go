package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sysdash/internal/app"
	"sysdash/internal/config"
	"sysdash/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("sysdash exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer := logging.New(cfg.LogLevel, cfg.LogFile)
	defer closer.Close()
	slog.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	logger.Info("sysdash ready",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"cache_ttl", cfg.CacheTTL,
		"auto_refresh", cfg.AutoRefresh,
		"watch_store", cfg.WatchStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}
