package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/api"
	"github.com/biomarker-range-server/internal/config"
	"github.com/biomarker-range-server/internal/logging"
	"github.com/biomarker-range-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	app, err := service.NewRuntime(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create dashboard service")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close snapshot cache")
		}
	}()

	server := api.NewServer(configManager, app.Dashboard, logger, api.WithHealthChecker(app.Health))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting biomarker range server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
