// Package app bootstraps the service: config, logging, storage backend
// selection, session store, notification sink, worker, and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/api"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/handler"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/middleware"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/config"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/observability"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/session"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage/jsonstore"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage/postgres"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/worker"
)

// Run bootstraps the HTTP server and reconciliation worker, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var healthChecks []handler.Check

	var store storage.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		store = pgStore
		healthChecks = append(healthChecks, handler.Check{Name: "database", Probe: pgStore.Ping})
		logger.Info("storage backend: postgres")
	} else {
		jsStore, err := jsonstore.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open json store: %w", err)
		}
		store = jsStore
		logger.Info("storage backend: json files", zap.String("dir", cfg.DataDir))
	}
	defer store.Close()

	var sessions session.Manager
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		sessions = session.NewRedisManager(redisClient, cfg.SessionTTL)
		healthChecks = append(healthChecks, handler.Check{
			Name: "redis",
			Probe: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
		logger.Info("session backend: redis")
	} else {
		sessions = session.NewMemoryManager(cfg.SessionTTL)
		logger.Info("session backend: memory")
	}

	var sink notify.Sink
	if cfg.NotifyWebhookURL != "" {
		sink = notify.NewWebhookSink(cfg.NotifyWebhookURL)
		logger.Info("notification sink: webhook", zap.String("url", cfg.NotifyWebhookURL))
	} else {
		sink = notify.NewLogSink()
		logger.Info("notification sink: log")
	}

	engine := service.NewEngine(store, sink, cfg.AdminIDs)

	reconWorker := worker.NewReconciliationWorker(service.NewReconciliationService(engine)).
		WithInterval(cfg.ReconciliationInterval)
	stopWorker := reconWorker.Run(ctx)
	logger.Info("reconciliation worker started", zap.Duration("interval", cfg.ReconciliationInterval))

	router := api.NewRouter(logger, engine, sessions, cfg.PublicRateLimitRPS, cfg.AuthRateLimitRPS, healthChecks...)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
