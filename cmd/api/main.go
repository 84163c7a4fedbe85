package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"fitbook/internal/api"
	"fitbook/internal/config"
	"fitbook/internal/database"
	"fitbook/internal/domain"
	"fitbook/internal/events"
	"fitbook/internal/logging"
	"fitbook/internal/metrics"
	"fitbook/internal/repository"
	"fitbook/internal/service"
	"fitbook/internal/timezone"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	tz, err := timezone.New(cfg.App.Timezone)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.URL, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("database_url", cfg.Database.URL).Msg("init database")
		return err
	}
	defer db.Close()

	logger.Info().
		Str("app", cfg.App.Name).
		Str("timezone", cfg.App.Timezone).
		Str("database", cfg.Database.URL).
		Msg("starting booking API")

	bus := initEventBus(logger)

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	var opts []service.BookingOption
	if cfg.Booking.AttemptLimit > 0 {
		opts = append(opts, service.WithAttemptLimiter(
			initAttemptLimiter(redisClient, logger),
			cfg.Booking.AttemptLimit,
			cfg.Booking.AttemptWindow,
		))
	}

	bookings := service.NewBookingService(db, bus, tz, logging.Component(logger, "booking"), opts...)
	queries := service.NewQueryService(db, logging.Component(logger, "query"))
	httpServer := api.NewHTTPServer(cfg.API, cfg.App, bookings, queries, tz, logging.Component(logger, "http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Monitoring.PrometheusEnabled {
		g.Go(func() error {
			return startMetricsServer(gctx, cfg.Monitoring.PrometheusPort, logger)
		})
	}

	backups := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	g.Go(func() error {
		return backups.Start(gctx)
	})

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Str("prefix", cfg.API.Prefix).Msg("API server started")

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("API server stopped with error")
		return err
	}
	logger.Info().Msg("API server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()
	bus.OnError(func(event *events.Event, err error) {
		logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
	})

	metrics.Register()
	metrics.SubscribeBookingEvents(bus)

	eventLogger := logging.Component(logger, "events")
	logEvent := func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		eventLogger.Info().
			Str("event", event.Type).
			Int64("class_id", payload.ClassID).
			Int64("booking_id", payload.BookingID).
			Str("client_email", payload.ClientEmail).
			Str("reason", payload.Reason).
			Msg("booking event")
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, logEvent)
	bus.Subscribe(events.EventBookingRejected, logEvent)

	return bus
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, attempt limits will use memory until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func initAttemptLimiter(client *redis.Client, logger *zerolog.Logger) domain.AttemptLimiter {
	memory := repository.NewMemoryAttemptLimiter()
	if client == nil {
		return memory
	}
	return repository.NewFailoverAttemptLimiter(
		repository.NewRedisAttemptLimiter(client),
		memory,
		logging.Component(logger, "attempt-limiter"),
	)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
