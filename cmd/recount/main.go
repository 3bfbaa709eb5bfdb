package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/social"
	"github.com/gamedeck/socialgraph/pkg/config"
	"github.com/gamedeck/socialgraph/pkg/logging"
)

func main() {
	account := pflag.String("account", "", "recount a single account instead of all accounts")
	batchSize := pflag.Int("batch-size", 500, "accounts read per page when recounting all")
	pflag.Parse()

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

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := social.NewEngine(db.NewStore(database, cfg.Graph.MaxTxAttempts), nil, social.Options{})

	if *account != "" {
		res, err := engine.Recount(ctx, *account)
		if err != nil {
			logger.Fatal("Recount failed", zap.String("uid", *account), zap.Error(err))
		}
		logger.Info("Recounted account",
			zap.String("uid", res.UID),
			zap.Bool("drifted", res.Drifted()),
			zap.Any("counts", res.After))
		return
	}

	logger.Info("Recounting all accounts", zap.Int("batch_size", *batchSize))
	checked := 0
	drifted, err := engine.RecountAll(ctx, *batchSize, func(social.RecountResult) {
		checked++
		if checked%10000 == 0 {
			logger.Info("Recount progress", zap.Int("checked", checked))
		}
	})
	if err != nil {
		logger.Fatal("Recount failed", zap.Int("checked", checked), zap.Error(err))
	}
	logger.Info("Recount finished", zap.Int("checked", checked), zap.Int("drifted", drifted))
}
