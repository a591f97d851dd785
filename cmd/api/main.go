package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playhub/internal/api"
	"playhub/internal/config"
	"playhub/internal/database"
	"playhub/internal/domain"
	"playhub/internal/events"
	"playhub/internal/export"
	"playhub/internal/logging"
	"playhub/internal/metrics"
	"playhub/internal/models"
	"playhub/internal/repository"
	"playhub/internal/service"
	"playhub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
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

	resources, err := loadResources(&logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache := initScheduleCache(ctx, cfg, &logger)
	if closeCache != nil {
		defer closeCache()
	}

	eventBus := events.NewEventBus()

	bookingService, err := service.NewBookingService(
		db, cache, eventBus, resources, cfg.Slots.ToSlots(),
		cfg.Booking.MaxConsecutiveSlots, cfg.Booking.MaxAdvanceDays, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("init booking service")
		return err
	}
	challengeService := service.NewChallengeService(db, db, eventBus, &logger)
	exporter := export.NewExporter(db, bookingService.Resources(), bookingService.Slots(), &logger)

	startNotifyWorker(ctx, cfg, eventBus, &logger)

	httpServer := api.NewHTTPServer(
		cfg.API, cfg.Booking, bookingService, challengeService, cache, exporter, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadResources(logger *zerolog.Logger) ([]models.Resource, error) {
	resourcesPath := os.Getenv("RESOURCES_PATH")
	if resourcesPath == "" {
		resourcesPath = "configs/resources.yaml"
	}
	data, err := os.ReadFile(resourcesPath)
	if err != nil {
		logger.Error().Err(err).Str("resources_path", resourcesPath).Msg("read resources")
		return nil, err
	}

	var catalog struct {
		Resources []models.Resource `yaml:"resources"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("resources_path", resourcesPath).Msg("parse resources")
		return nil, err
	}

	if err := config.ValidateResources(catalog.Resources); err != nil {
		logger.Error().Err(err).Msg("invalid resources")
		return nil, err
	}

	return catalog.Resources, nil
}

// initScheduleCache wires the day-grid cache: redis with an in-memory
// fallback when configured, plain in-memory otherwise.
func initScheduleCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.ScheduleCache, func()) {
	ttl := time.Duration(cfg.Booking.ScheduleCacheTTL) * time.Second
	memory := repository.NewMemoryScheduleCache(ttl)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory schedule cache")
		return memory, nil
	}

	client := repository.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory schedule cache")
		_ = client.Close()
		return memory, nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	primary := repository.NewRedisScheduleCache(client, ttl)
	failover := repository.NewFailoverScheduleCache(primary, memory, logger)
	return failover, func() { _ = client.Close() }
}

func startNotifyWorker(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Notify.Enabled {
		return
	}

	notifier, err := worker.NewTelegramNotifier(cfg.Notify.BotToken, cfg.Notify.ChatID, cfg.Notify.Debug)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}

	retryPolicy := worker.RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
	notifyWorker := worker.NewNotifyWorker(notifier, retryPolicy, logger)
	notifyWorker.Subscribe(bus)
	go notifyWorker.Start(ctx)

	logger.Info().Int64("chat_id", cfg.Notify.ChatID).Msg("notify worker running")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
