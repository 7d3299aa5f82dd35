package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/closurehq/laser-backend/internal/cron"
	"github.com/closurehq/laser-backend/internal/locations"
	"github.com/closurehq/laser-backend/internal/notifications"
	"github.com/closurehq/laser-backend/internal/offers"
	"github.com/closurehq/laser-backend/pkg/config"
	"github.com/closurehq/laser-backend/pkg/db"
	"github.com/closurehq/laser-backend/pkg/flightlabs"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/metrics"
	"github.com/closurehq/laser-backend/pkg/migrate"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/redis"
)

const lockKeyFormat = "laser:cron-worker:lock:%s:%s"

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
	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	offerSweepJob, err := cron.NewOfferSweepJob(cron.OfferSweepJobParams{
		Logger: logg,
		DB:     dbClient,
		Reader: offers.NewRepository(gormDB),
		Outbox: outbox.NewService(outbox.NewRepository(gormDB), logg),
		MaxAge: cfg.Cron.OfferMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create offer sweep job", err)
		os.Exit(1)
	}

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notifications.NewRepository(gormDB),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outbox.NewRepository(gormDB),
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	sweepService, err := newSchedule(cfg, logg, redisClient, "sweep", cfg.Cron.OfferSweepInterval, metricsCollector,
		offerSweepJob, notificationCleanupJob, outboxRetentionJob)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep schedule", err)
		os.Exit(1)
	}

	schedules := []*cron.Service{sweepService}

	if cfg.FlightLabs.AccessKey != "" {
		flightClient, err := flightlabs.NewClient(
			cfg.FlightLabs.AccessKey,
			flightlabs.WithBaseURL(cfg.FlightLabs.BaseURL),
			flightlabs.WithTimeout(cfg.FlightLabs.Timeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create flightlabs client", err)
			os.Exit(1)
		}
		catalog, err := locations.NewService(locations.NewRepository(gormDB), flightClient, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create locations service", err)
			os.Exit(1)
		}
		airportJob, err := cron.NewAirportRefreshJob(cron.AirportRefreshJobParams{
			Logger:  logg,
			Catalog: catalog,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create airport refresh job", err)
			os.Exit(1)
		}
		catalogService, err := newSchedule(cfg, logg, redisClient, "catalog", cfg.Cron.AirportRefreshInterval, metricsCollector, airportJob)
		if err != nil {
			logg.Error(context.Background(), "failed to create catalog schedule", err)
			os.Exit(1)
		}
		schedules = append(schedules, catalogService)
	} else {
		logg.Warn(context.Background(), "flightlabs access key not set, airport refresh schedule disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Cron.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer metricsServer.Close()

	group, groupCtx := errgroup.WithContext(ctx)
	for _, schedule := range schedules {
		group.Go(func() error {
			return schedule.Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func newSchedule(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	name string,
	interval time.Duration,
	metricsCollector *metrics.CronJobMetrics,
	jobs ...cron.Job,
) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env, name), cfg.Cron.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("create %s lock: %w", name, err)
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: interval,
	})
}

func lockKey(env, schedule string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env, schedule)
}
