// Package mcp exposes the biomarker dashboard as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
)

// Dashboard is the part of the dashboard service the tools call into.
type Dashboard interface {
	domain.SnapshotLoader
	Normalize(row domain.RawRow, value float64, demographic string) domain.BiomarkerView
}

// Server represents the biomarker MCP server
type Server struct {
	config         domain.ConfigManager
	dashboard      Dashboard
	mcpServer      *mcp.Server
	logger         *logrus.Logger
	requestTimeout time.Duration
}

// NewServer creates a new MCP server instance
func NewServer(configManager domain.ConfigManager, dashboard Dashboard, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cfg := configManager.GetConfig()

	serverInfo := &mcp.Implementation{
		Name:    cfg.MCP.ServerName,
		Version: cfg.MCP.ServerVersion,
	}

	server := &Server{
		config:         configManager,
		dashboard:      dashboard,
		mcpServer:      mcp.NewServer(serverInfo, nil),
		logger:         logger,
		requestTimeout: cfg.MCP.RequestTimeout,
	}

	if err := server.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return server, nil
}

// Start runs the server over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.GetConfig()
	s.logger.WithFields(logrus.Fields{
		"server_name":    cfg.MCP.ServerName,
		"server_version": cfg.MCP.ServerVersion,
		"transport":      "stdio",
	}).Info("Starting biomarker MCP server")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// registerTools registers every dashboard tool with the SDK server
func (s *Server) registerTools() error {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_biomarkers",
		Description: "Load (or return the cached) biomarker snapshot with status, ranges, graph bounds and indicator geometry for every configured biomarker.",
	}, s.handleListBiomarkers)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_biomarker",
		Description: "Return one biomarker of the current snapshot by catalog key, e.g. \"creatinine\".",
	}, s.handleGetBiomarker)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "refresh_biomarkers",
		Description: "Force a reload from the spreadsheet (falling back to the local CSV) and return the new snapshot.",
	}, s.handleRefreshBiomarkers)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "normalize_row",
		Description: "Normalize a raw spreadsheet row for a demographic and classify the given current value.",
	}, s.handleNormalizeRow)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_value",
		Description: "Classify a value against range notations such as \"70-99\", \"<5\" or \">100\".",
	}, s.handleClassifyValue)

	s.logger.WithField("tool_count", 5).Debug("Registered MCP tools")
	return nil
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}
