package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"clippulse/internal/config"
	"clippulse/internal/engine"
	"clippulse/internal/metrics"
	"clippulse/internal/notify"
	"clippulse/internal/pkg/logger"
	"clippulse/internal/storage"
	"clippulse/internal/worker"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		logger.NewDefault().Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "clippulse-worker",
	})

	log.Info("starting ClipPulse worker", "version", "0.1.0")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	sp, err := storage.NewProvider(ctx)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	publisher, closePublisher, err := notify.NewPublisher(notify.TransportConfig{
		Transport: cfg.NotifyTransport,
		AMQPURL:   cfg.AMQPURL,
	}, rdb)
	if err != nil {
		log.LogFatal("failed to initialize notify transport", err)
	}
	defer func() {
		if err := closePublisher(); err != nil {
			log.Warn("notify transport close failed", "error", err.Error())
		}
	}()
	log.Info("notify transport initialized", "transport", cfg.NotifyTransport)

	metricsSrv := metrics.StartServer(cfg.MetricsPort, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server shutdown failed", "error", err.Error())
		}
	}()

	err = worker.Run(ctx, worker.Deps{
		Pool:        pool,
		RDB:         rdb,
		QueueName:   cfg.QueueName,
		Concurrency: cfg.Concurrency,
		Publisher:   publisher,
		Engines: engine.Config{
			StepFunAPIKey:   cfg.Engines.StepFunAPIKey,
			DashScopeAPIKey: cfg.Engines.DashScopeAPIKey,
			PikaAPIKey:      cfg.Engines.PikaAPIKey,
			InVideoAPIKey:   cfg.Engines.InVideoAPIKey,
			ChatGLMAPIKey:   cfg.Engines.ChatGLMAPIKey,
		},
		Artifacts: sp,
		Log:       log,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.LogFatal("worker stopped with error", err)
	}
	log.Info("worker stopped")
}
