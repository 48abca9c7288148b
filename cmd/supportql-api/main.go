package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supportql/supportql/internal/api"
	"github.com/supportql/supportql/internal/archive"
	"github.com/supportql/supportql/internal/auth"
	"github.com/supportql/supportql/internal/config"
	"github.com/supportql/supportql/internal/conversation"
	conversationpostgres "github.com/supportql/supportql/internal/conversation/postgres"
	conversationsqlite "github.com/supportql/supportql/internal/conversation/sqlite"
	"github.com/supportql/supportql/internal/datastore"
	"github.com/supportql/supportql/internal/llm"
	"github.com/supportql/supportql/internal/observability"
	"github.com/supportql/supportql/internal/pipeline"
	"github.com/supportql/supportql/internal/store"
	s3store "github.com/supportql/supportql/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("supportql-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		logger.Error("failed to open store db", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	dialect, err := store.DialectForDriver(cfg.Store.Driver)
	if err != nil {
		logger.Error("failed to resolve store dialect", slog.Any("error", err))
		os.Exit(1)
	}

	var transcript conversation.Store
	if dialect == store.DialectSQLite {
		transcript = conversationsqlite.NewRepository(db)
	} else {
		transcript = conversationpostgres.NewRepository(db)
	}

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize llm client", slog.Any("error", err))
		os.Exit(1)
	}

	supportPipeline := pipeline.New(client, datastore.New(db, dialect), transcript, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Dependencies{
		Logger:     logger,
		Pipeline:   supportPipeline,
		Transcript: transcript,
		Readiness: api.CombineReadinessChecks(
			api.CheckStoreDSN(cfg),
			api.CheckLLMConfig(cfg),
			api.CheckObjectStoreConfig(cfg),
			func(ctx context.Context) error { return db.PingContext(ctx) },
		),
		DependencyTimeout: time.Second,
	}

	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(ctx, cfg.ObjectStore)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		archiveService := archive.NewService(transcript, objectStore, logger, archive.Config{
			Interval:   cfg.Archive.Interval,
			BatchLimit: cfg.Archive.BatchLimit,
		})
		deps.Archive = archiveService
		go archiveService.Run(ctx)
	}

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
