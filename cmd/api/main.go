package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/wallet-proxy/internal/application/services"
	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/cache"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/oneinch"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/stats"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/upstream"
	"github.com/bimakw/wallet-proxy/internal/presentation"
	"github.com/bimakw/wallet-proxy/internal/presentation/handlers"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	logger.Info("Starting wallet-proxy API",
		zap.Int("port", cfg.API.Port),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("allowed_origin", cfg.API.AllowedOrigin),
	)

	if cfg.Upstream.APIKey == "" {
		logger.Warn("INCH_API_KEY is not set, upstream requests will be rejected")
	}

	clk := clock.New()

	// Shared cache backend (optional), memory tiers otherwise
	var sharedStore cache.Store
	if cfg.Cache.Backend == "redis" {
		redisStore, err := cache.NewRedisStore(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Failed to connect to Redis, falling back to memory cache", zap.Error(err))
		} else {
			defer redisStore.Close()
			sharedStore = redisStore
		}
	}

	tiered, err := cache.NewTieredCache(cfg.Cache, sharedStore, clk, logger)
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}

	// Upstream client
	fetcher := upstream.NewFetcherFromConfig(cfg.Upstream, logger)
	client := oneinch.NewClient(fetcher, cfg.Upstream, logger)

	// Create services
	tracker := stats.NewCardinalityTracker()
	detailService := services.NewTokenDetailService(client, tiered.Metadata, cfg.Aggregation, clk, logger)
	priceService := services.NewPriceService(client, tiered.Prices, cfg.Aggregation, clk, logger)
	walletService := services.NewWalletService(client, tiered.Balances, detailService, priceService, tracker, cfg.Aggregation, logger)
	statsService := services.NewStatsService(tiered, tracker, clk)

	// Create handlers
	router := presentation.NewRouter(cfg.API, presentation.Handlers{
		Health:  handlers.NewHealthHandler(tiered),
		Wallet:  handlers.NewWalletHandler(walletService, logger),
		Webhook: handlers.NewWebhookHandler(logger),
		Stats:   handlers.NewStatsHandler(statsService, logger),
	}, logger)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Run server in goroutine
	go func() {
		logger.Info("API server starting",
			zap.String("addr", addr),
			zap.Int("max_attempts", fetcher.Policy().MaxAttempts),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Received shutdown signal, shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func setupLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoding := "json"
	encoderConfig := zap.NewProductionEncoderConfig()
	if format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	return logger
}
