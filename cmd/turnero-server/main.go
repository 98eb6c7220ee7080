package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"turnero/internal/cache"
	"turnero/internal/config"
	"turnero/internal/metrics"
	"turnero/internal/service/booking"
	"turnero/internal/service/schedule"
	"turnero/internal/store/postgres"
	httpTransport "turnero/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "turnero-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "turnero-server"),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("http_addr", cfg.HTTPAddr), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Error("migrations failed", slog.Any("err", err))
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	apptRepo := postgres.NewAppointmentRepo(db)
	calRepo := postgres.NewCalendarRepo(db)

	bookingCfg := booking.Config{Granularity: cfg.SlotGranularity}
	var scheduleInvalidator schedule.CacheInvalidator
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable; availability cache disabled",
				slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
		} else {
			availCache := cache.NewAvailabilityCache(rdb, cfg.CacheTTL, log)
			bookingCfg.Cache = availCache
			scheduleInvalidator = availCache
			log.Info("availability cache enabled", slog.String("redis_addr", cfg.RedisAddr))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
	}

	bookingSvc := booking.NewService(apptRepo, calRepo, bookingCfg)
	scheduleSvc := schedule.NewService(calRepo, scheduleInvalidator)

	metrics.Register()
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", slog.Any("err", err))
		}
	}()

	app := httpTransport.NewServer(bookingSvc, scheduleSvc, log).App(cfg.RequestTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTPAddr)
	}()

	log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr), slog.String("metrics_addr", cfg.MetricsAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, app.ShutdownWithTimeout, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics shutdown failed", slog.Any("err", err))
	}
}

func shutdown(log *slog.Logger, stop func(time.Duration) error, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	if err := stop(timeout); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
