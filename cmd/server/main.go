package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/api"
	"github.com/gamedeck/socialgraph/internal/cache"
	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/notify"
	"github.com/gamedeck/socialgraph/internal/social"
	"github.com/gamedeck/socialgraph/pkg/config"
	"github.com/gamedeck/socialgraph/pkg/logging"
	"github.com/gamedeck/socialgraph/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting social graph API server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	err = database.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	sink, closeSink, err := newSink(&cfg.Notify, database)
	if err != nil {
		logger.Fatal("Failed to create notification sink", zap.Error(err))
	}
	defer closeSink()

	dispatcher := notify.NewDispatcher(sink, cfg.Notify.Workers, cfg.Notify.QueueSize, logging.WithComponent("notify"))
	defer dispatcher.Close()

	store := db.NewStore(database, cfg.Graph.MaxTxAttempts)
	engine := social.NewEngine(store, dispatcher, social.Options{
		Cache:           redisCache,
		StatusTTL:       cfg.Redis.StatusTTL,
		DefaultPageSize: cfg.Graph.DefaultPageSize,
		MaxPageSize:     cfg.Graph.MaxPageSize,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiter := api.NewRateLimiter(&cfg.RateLimit)
	go limiter.Cleanup(ctx)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	api.NewRouter(engine, database, redisCache, limiter).SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Telemetry.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("Metrics server starting", zap.String("address", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server forced to shutdown", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// newSink builds the configured notification sink and its cleanup
func newSink(cfg *config.NotifyConfig, database *db.DB) (notify.Sink, func(), error) {
	switch cfg.Sink {
	case "nats":
		sink, err := notify.NewNATSSink(cfg.NatsURL, cfg.Subject)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {
			if err := sink.Close(); err != nil {
				logging.GetLogger().Warn("Failed to drain NATS connection", zap.Error(err))
			}
		}, nil
	case "log":
		return notify.NewLogSink(logging.WithComponent("notify-log")), func() {}, nil
	default:
		return notify.NewDBSink(db.NewRepository(database.DB)), func() {}, nil
	}
}
