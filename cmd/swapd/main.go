package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/swapd/internal/application/notify"
	"github.com/aescanero/swapd/internal/application/orchestrator"
	"github.com/aescanero/swapd/internal/application/router"
	"github.com/aescanero/swapd/internal/application/workers"
	"github.com/aescanero/swapd/internal/config"
	"github.com/aescanero/swapd/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/swapd/pkg/adapters/submitter"
	"github.com/aescanero/swapd/pkg/adapters/venue"
	"github.com/aescanero/swapd/pkg/api/grpc"
	"github.com/aescanero/swapd/pkg/api/http"
	"github.com/aescanero/swapd/pkg/api/websocket"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting swapd",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("storage_backend", cfg.Backends.Storage),
		zap.String("cache_backend", cfg.Backends.Cache),
		zap.String("queue_backend", cfg.Backends.Queue))

	ctx := context.Background()

	// Initialize adapters
	infra, err := newInfrastructure(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}

	metricsCollector := prometheus.NewCollector(promclient.DefaultRegisterer)

	providers, err := venue.NewProviders(&venue.Config{
		Venues:      cfg.Router.Venues,
		Latency:     cfg.Simulation.QuoteLatency,
		FailureRate: cfg.Simulation.FailureRate,
		Logger:      logger.Named("venue"),
	})
	if err != nil {
		logger.Fatal("failed to create venue providers", zap.Error(err))
	}

	// Initialize application components
	venueRouter := router.NewRouter(providers, cfg.Router.ProviderTimeout, metricsCollector, logger.Named("router"))
	hub := notify.NewHub(infra.cache, metricsCollector, logger.Named("notify"))

	executor := workers.NewExecutor(workers.ExecutorDeps{
		Orders:    infra.orders,
		Failures:  infra.failures,
		Cache:     infra.cache,
		Router:    venueRouter,
		Submitter: submitter.NewSimulatedSubmitter(cfg.Simulation.SubmitLatency, logger.Named("submitter")),
		Notifier:  hub,
		Metrics:   metricsCollector,
		Logger:    logger.Named("executor"),
	})

	workerPool := workers.NewPool(workers.PoolConfig{
		Size:                cfg.Workers.PoolSize,
		RateLimit:           cfg.Workers.RateLimit,
		RateWindow:          cfg.Workers.RateWindow,
		AttemptTimeout:      cfg.Timeouts.JobAttemptTimeout,
		HealthCheckInterval: cfg.Workers.HealthCheckInterval,
	}, infra.queue, executor, metricsCollector, logger)

	orderService := orchestrator.NewOrderService(
		infra.orders,
		infra.failures,
		infra.queue,
		metricsCollector,
		orchestrator.NewValidator(),
		cfg.JobOptions(),
		logger,
	)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:    cfg.HTTPPort,
		Orders:  orderService,
		Workers: workerPool,
		Logger:  logger,
	})

	wsHandler := websocket.NewHandler(hub, cfg.Timeouts.WriteTimeout, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}
	workerPool.Health().OnChange(grpcServer.SetServing)

	// Start worker pool
	if err := workerPool.Start(); err != nil {
		logger.Fatal("failed to start worker pool", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("swapd started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.Strings("venues", cfg.Router.Venues))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	infra.close(logger)

	logger.Info("swapd shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
