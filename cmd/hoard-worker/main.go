package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hoard/internal/config"
	"hoard/internal/db"
	"hoard/internal/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	eng := engine.NewService(pool, logger)

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("HOARD_WORKER_RUN_ONCE")), "true")
	if runOnce {
		n, err := eng.NotifyRipeCrops(ctx)
		if err != nil {
			logger.Error("ripe crop sweep failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "ripened", n)
		return
	}

	ticker := time.NewTicker(cfg.RipeTickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.RipeTickEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			n, err := eng.NotifyRipeCrops(ctx)
			if err != nil {
				logger.Error("ripe crop sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("ripe crop sweep complete", "ripened", n)
			}
		}
	}
}
