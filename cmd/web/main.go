package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esferas/internal/api"
	"esferas/internal/config"
	"esferas/internal/database"
	"esferas/internal/domain"
	"esferas/internal/events"
	"esferas/internal/logging"
	"esferas/internal/metrics"
	"esferas/internal/notify"
	"esferas/internal/repository"
	"esferas/internal/service"
	"esferas/internal/web"
	"esferas/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultConfigPath = "configs/config.yaml"

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

	metrics.Register()

	readiness := make(map[string]domain.Pinger)

	sessionRepo, redisClient := initSessionStore(cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
		readiness["redis"] = repository.NewRedisSessionRepository(redisClient)
	}

	bookingRepo, db, err := initBookingStore(cfg, &logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		readiness["sqlite"] = db
	}

	sink, err := notify.NewFileSink(cfg.Notify, logging.Component(&logger, "notify"))
	if err != nil {
		logger.Error().Err(err).Msg("init notification sink")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	eventBus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event", event.Type).Msg("event handler failed")
	})
	events.SubscribeAudit(eventBus, logging.Component(&logger, "audit"))

	dispatcher := worker.NewDispatcher(0, worker.RetryPolicy{}, logging.Component(&logger, "worker"))
	dispatcher.Start(ctx)
	defer func() {
		stop()
		dispatcher.Wait()
	}()
	initTelegram(cfg, eventBus, dispatcher, &logger)

	sessions := service.NewSessionService(sessionRepo, eventBus, cfg.Session.TTL, logging.Component(&logger, "sessions"))
	bookings := service.NewBookingService(
		bookingRepo,
		sink,
		eventBus,
		cfg.Notify.OwnerEmail,
		cfg.Notify.Location,
		cfg.Notify.InviteTitle,
		logging.Component(&logger, "bookings"),
	)

	httpServer := api.NewHTTPServer(cfg, sessions, bookings, staticAssets(cfg, &logger), logging.Component(&logger, "http"))
	for name, p := range readiness {
		httpServer.AddReadinessCheck(name, p)
	}

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			configPath = defaultConfigPath
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "web-main").Logger()

	return cfg, logger, closer, nil
}

// initSessionStore returns the configured session store. With the redis
// backend, sessions fall back to memory while redis is unreachable.
func initSessionStore(cfg *config.Config, logger *zerolog.Logger) (domain.SessionRepository, *redis.Client) {
	memory := repository.NewMemorySessionRepository()
	if cfg.Session.Backend != config.BackendRedis {
		return memory, nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, sessions start in memory")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisSessionRepository(redisClient)
	return repository.NewFailoverSessionRepository(primary, memory, logging.Component(logger, "sessions-failover")), redisClient
}

func initBookingStore(cfg *config.Config, logger *zerolog.Logger) (domain.BookingRepository, *database.DB, error) {
	if cfg.Storage.Backend != config.BackendSQLite {
		return repository.NewMemoryBookingRepository(), nil, nil
	}

	db, err := database.NewDB(cfg.Storage.SQLitePath, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Storage.SQLitePath).Msg("init database")
		return nil, nil, err
	}
	return db, db, nil
}

func initTelegram(cfg *config.Config, bus *events.EventBus, dispatcher *worker.Dispatcher, logger *zerolog.Logger) {
	if !cfg.Notify.Telegram.Enabled() {
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Notify.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without owner chat notifications")
		return
	}

	notify.NewTelegramForwarder(bot, cfg.Notify.Telegram.ChatID, logging.Component(logger, "telegram")).SubscribeAsync(bus, dispatcher)
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram forwarder enabled")
}

func staticAssets(cfg *config.Config, logger *zerolog.Logger) fs.FS {
	if cfg.Server.StaticDir == "" {
		return web.Assets()
	}
	logger.Info().Str("dir", cfg.Server.StaticDir).Msg("serving client files from disk")
	return os.DirFS(cfg.Server.StaticDir)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	ln, err := httpServer.Listen()
	if err != nil {
		logger.Error().Err(err).Msg("http server failed to start")
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	logger.Info().Int("http_port", cfg.Server.Port).Msgf("Servidor listo en http://localhost:%d", cfg.Server.Port)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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
