package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/biomarker-range-server/internal/config"
	"github.com/biomarker-range-server/internal/logging"
	"github.com/biomarker-range-server/internal/mcp"
	"github.com/biomarker-range-server/internal/service"
)

func main() {
	// stdout carries the protocol, so nothing else may write there
	log.SetOutput(os.Stderr)

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	logger, err := logging.NewMCPLogger(cfg.Logging)
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

	mcpServer, err := mcp.NewServer(configManager, app.Dashboard, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpServer.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server stopped with error")
		os.Exit(1)
	}

	logger.Info("Biomarker MCP server stopped")
}
