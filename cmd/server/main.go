/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timeclock server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load TIMECLOCK_* environment, then apply command-line overrides
  2. Build the zap logger
  3. Open the row store (sqlite, redis or memory)
  4. Create the engine with the holiday source and metrics observer
  5. Seed default settings, start the holiday scheduler
  6. Configure HTTP router and serve with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides TIMECLOCK_ADDR)
  -db      SQLite database path (overrides TIMECLOCK_SQLITE_PATH)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  See config/config.go. The most common ones:
  TIMECLOCK_STORAGE=sqlite|redis|memory
  TIMECLOCK_REDIS_ADDR=127.0.0.1:6379
  TIMECLOCK_HOLIDAY_ICS_URL=https://example.com/holidays.ics
  TIMECLOCK_LOG_FORMAT=json|console

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the holiday scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the store

EXAMPLES:
  # Run with file database
  ./server -db="./data/timeclock.db"

  # Run against redis
  TIMECLOCK_STORAGE=redis ./server

SEE ALSO:
  - api/server.go: Router configuration
  - timeclock/engine.go: Engine
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/api"
	"github.com/warp/timeclock-engine/config"
	"github.com/warp/timeclock-engine/holiday"
	"github.com/warp/timeclock-engine/logging"
	"github.com/warp/timeclock-engine/metrics"
	redisstore "github.com/warp/timeclock-engine/store/redis"
	"github.com/warp/timeclock-engine/store/sqlite"
	"github.com/warp/timeclock-engine/timeclock"
	"github.com/warp/timeclock-engine/timeclock/store"
)

// backend is what main needs from any store.
type backend interface {
	timeclock.Gateway
	api.Pinger
	io.Closer
}

// memoryBackend adapts the in-memory store to backend.
type memoryBackend struct{ *store.Memory }

func (memoryBackend) Ping(context.Context) error { return nil }
func (memoryBackend) Close() error               { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides TIMECLOCK_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides TIMECLOCK_SQLITE_PATH)")
	flag.Parse()
	if *port > 0 {
		cfg.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.SQLitePath = *dbPath
		cfg.Storage = config.StorageSQLite
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	gw, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer gw.Close()
	logger.Info("store opened", zap.String("storage", cfg.Storage))

	var source timeclock.HolidaySource = holiday.JapanFixed()
	if cfg.HolidayICSURL != "" {
		source = holiday.NewICS(cfg.HolidayICSURL)
	}

	m := metrics.New()
	engine := timeclock.New(gw,
		timeclock.WithLocation(cfg.Location()),
		timeclock.WithHolidaySource(source),
		timeclock.WithLogger(logger.Named("engine")),
		timeclock.WithObserver(m),
	)
	if err := engine.Init(ctx); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	scheduler := api.NewHolidayScheduler(engine, logger.Named("scheduler"))
	scheduler.CheckInterval = cfg.HolidayCheckInterval
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(engine, logger.Named("api"))
	handler.Store = gw
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            m.Handler(),
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		client, err := redisstore.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, cfg.RedisPrefix), nil
	case config.StorageMemory:
		return memoryBackend{store.NewMemory()}, nil
	default:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, nil
	}
}
