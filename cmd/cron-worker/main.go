package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/replate-app/replate-backend/internal/cron"
	"github.com/replate-app/replate-backend/internal/listings"
	"github.com/replate-app/replate-backend/internal/ranking"
	"github.com/replate-app/replate-backend/internal/scoring"
	"github.com/replate-app/replate-backend/pkg/config"
	"github.com/replate-app/replate-backend/pkg/db"
	"github.com/replate-app/replate-backend/pkg/logger"
	"github.com/replate-app/replate-backend/pkg/metrics"
	"github.com/replate-app/replate-backend/pkg/migrate"
	"github.com/replate-app/replate-backend/pkg/outbox"
	"github.com/replate-app/replate-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outboxRepo, logg)

	scoringSvc, err := scoring.NewService(scoring.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create scoring service", err)
		os.Exit(1)
	}

	rankingSvc, err := ranking.NewService(ranking.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking service", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewListingExpiryJob(cron.ListingExpiryJobParams{
		Logger:   logg,
		DB:       dbClient,
		Listings: listings.NewRepository(gormDB),
		Outbox:   outboxSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create listing expiry job", err)
		os.Exit(1)
	}

	refreshJob, err := cron.NewRankingRefreshJob(cron.RankingRefreshJobParams{
		Logger:  logg,
		Scoring: scoringSvc,
		Ranking: rankingSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ranking refresh job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetentionAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(expiryJob, cfg.Cron.ListingExpirySweepEvery)
	registry.Register(refreshJob, cfg.Cron.RankingRefreshEvery)
	registry.Register(retentionJob, cfg.Cron.OutboxRetentionEvery)

	locks := func(jobName string) (cron.Lock, error) {
		return cron.NewRedisLock(redisClient, redisClient.LockKey(jobName), cfg.Cron.LockTTL)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locks:    locks,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
