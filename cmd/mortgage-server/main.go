package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/cache"
	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/iwvelando/mortgage-calculator/internal/logging"
	"github.com/iwvelando/mortgage-calculator/internal/server"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	memoryHistoryRecords = 1000
	shutdownTimeout      = 10 * time.Second
)

// openCache connects to Redis when an address is configured and falls back
// to an in-process cache otherwise or when Redis is unreachable.
func openCache(ctx context.Context, logger *zap.Logger, storage config.StorageConfig, ttl time.Duration) (cache.Cache, func()) {
	if storage.RedisAddress == "" {
		return cache.NewMemoryCache(ttl), func() {}
	}

	redisCache, err := cache.NewRedisCache(ctx, logger, storage.RedisAddress, ttl)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory cache",
			zap.String("op", "main.openCache"),
			zap.String("address", storage.RedisAddress),
			zap.Error(err),
		)
		return cache.NewMemoryCache(ttl), func() {}
	}

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Warn("failed to close redis client",
				zap.String("op", "main.openCache"),
				zap.Error(err),
			)
		}
	}
}

// openHistory connects to Postgres when a DSN is configured. A configured
// but unreachable database is fatal so that records are not silently lost.
func openHistory(ctx context.Context, logger *zap.Logger, storage config.StorageConfig) (history.Store, error) {
	if storage.PostgresDSN == "" {
		return history.NewMemoryStore(memoryHistoryRecords), nil
	}
	return history.NewPostgresStore(ctx, logger, storage.PostgresDSN)
}

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	addressFlag := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	maxUploadFlag := flag.String("max-upload-size", "", "maximum upload size override, e.g. 512K or 2M")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}
	if *maxUploadFlag != "" {
		size, err := server.ParseSize(*maxUploadFlag)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid max upload size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	resultCache, closeCache := openCache(startupCtx, logger, cfg.Storage, cfg.CacheTTL())
	defer closeCache()

	store, err := openHistory(startupCtx, logger, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open history store",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close history store",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	var limiter *server.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = server.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimitWindow())
		defer limiter.Stop()
	}

	handler := server.NewHandler(server.Options{
		Logger:        logger,
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
		Cache:         resultCache,
		History:       store,
		RateLimiter:   limiter,
	})

	httpServer := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("listening on %s", cfg.Address),
			zap.String("op", "main"),
			zap.String("version", version),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case sig := <-quit:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	logger.Info("server exited", zap.String("op", "main"))
}
