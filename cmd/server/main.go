package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/poaching-risk-service/internal/adapter/backend"
	httpadapter "github.com/couchcryptid/poaching-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/poaching-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/poaching-risk-service/internal/adapter/ws"
	"github.com/couchcryptid/poaching-risk-service/internal/config"
	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
	"github.com/couchcryptid/poaching-risk-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	resolver := domain.NewDefaultResolver()
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, metrics, logger)
	ready := httpadapter.ReadinessChecks{client}

	// Backend response cache: shared Redis when configured, in-process LRU otherwise.
	var store backend.Store
	var redisStore *backend.RedisStore
	if cfg.RedisAddr != "" {
		redisStore = backend.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store = redisStore
		ready = append(ready, redisStore)
		logger.Info("backend cache using redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "ttl", cfg.BackendCacheTTL)
	} else {
		store = backend.NewMemoryStore(cfg.BackendCacheSize, clockwork.NewRealClock())
		logger.Info("backend cache in memory", "size", cfg.BackendCacheSize, "ttl", cfg.BackendCacheTTL)
	}
	cached := backend.NewCachedFetcher(client, store, cfg.BackendCacheTTL, metrics, logger)

	api := httpadapter.NewAPI(resolver, client, cached, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var loaders []pipeline.AlertLoader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		api.WithPublisher(writer)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers,
			"prediction_topic", cfg.KafkaPredictionTopic, "alert_topic", cfg.KafkaAlertTopic)
	}
	if cfg.AlertStreamEnabled {
		hub := ws.NewHub(metrics, logger)
		go hub.Run(ctx)
		api.WithStream(hub)
		loaders = append(loaders, hub)
	}

	// The relay polls the uncached client so every poll sees fresh alerts.
	if cfg.RelayEnabled() {
		relay := pipeline.New(pipeline.NewExtractor(client), resolver, loaders, cfg.AlertPollInterval, logger, metrics)
		ready = append(ready, relay)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("alert relay error", "error", err)
			}
		}()
	} else {
		logger.Info("alert relay disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, api, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
