package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/supportql/supportql/internal/config"
	"github.com/supportql/supportql/internal/demo/seeder"
	"github.com/supportql/supportql/internal/observability"
	"github.com/supportql/supportql/internal/store"
)

func main() {
	seed := flag.Int64("seed", 1, "random seed for the generated dataset")
	orders := flag.Int("orders", 20, "number of demo orders to generate")
	flag.Parse()

	cfg, err := config.LoadFromEnv("supportql-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open store db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	dataset := seeder.NewGenerator(*seed).Generate(*orders)
	if err := seeder.New(db, logger).Seed(ctx, dataset); err != nil {
		logger.Error("failed to seed demo data", slog.Any("error", err))
		os.Exit(1)
	}
}
