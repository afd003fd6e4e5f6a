package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/internal/health"
	"github.com/biomarker-range-server/internal/middleware"
	"github.com/biomarker-range-server/internal/service"
	"github.com/biomarker-range-server/pkg/biomarker"
)

const defaultShutdownTimeout = 30 * time.Second

// Dashboard is the part of the dashboard service the API exposes.
type Dashboard interface {
	domain.SnapshotLoader
	Normalize(row domain.RawRow, value float64, demographic string) domain.BiomarkerView
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	dashboard     Dashboard
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
	health        *health.Checker
	startedAt     time.Time
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithHealthChecker reports component health on /health.
func WithHealthChecker(checker *health.Checker) ServerOption {
	return func(s *Server) {
		s.health = checker
	}
}

// ginMode picks the router mode. Production always runs in release mode; otherwise an
// explicit server.mode wins, and debug logging in development turns on gin's debug output.
func ginMode(configManager domain.ConfigManager) string {
	cfg := configManager.GetConfig()
	if configManager.IsProduction() {
		return gin.ReleaseMode
	}
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode, gin.ReleaseMode:
		return cfg.Server.Mode
	}
	if configManager.IsDevelopment() && strings.EqualFold(cfg.Logging.Level, "debug") {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, dashboard Dashboard, logger *logrus.Logger, opts ...ServerOption) *Server {
	cfg := configManager.GetConfig()

	gin.SetMode(ginMode(configManager))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestTimeout(cfg.Source.Timeout * 2))

	server := &Server{
		configManager: configManager,
		dashboard:     dashboard,
		logger:        logger,
		router:        router,
		startedAt:     time.Now(),
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/biomarkers", s.handleListBiomarkers)
		v1.GET("/biomarkers/:key", s.handleGetBiomarker)
		v1.POST("/refresh", s.handleRefresh)
		v1.POST("/normalize", s.handleNormalize)
		v1.POST("/classify", s.handleClassify)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		status := s.health.Run(c.Request.Context())
		code := http.StatusOK
		if status.Overall == health.HealthStateUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
		return
	}

	cfg := s.configManager.GetConfig()
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     cfg.MCP.ServerVersion,
		"environment": cfg.Environment,
		"uptime":      time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleListBiomarkers(c *gin.Context) {
	snap, err := s.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleGetBiomarker(c *gin.Context) {
	key := c.Param("key")

	snap, err := s.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	view, ok := snap.Find(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":  "NOT_FOUND",
			"error": fmt.Sprintf("biomarker %q is not part of the dashboard", key),
		})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRefresh(c *gin.Context) {
	snap, err := s.dashboard.Refresh(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type normalizeRequest struct {
	Row         map[string]string `json:"row" binding:"required"`
	Value       *float64          `json:"value" binding:"required"`
	Demographic string            `json:"demographic"`
}

func (s *Server) handleNormalize(c *gin.Context) {
	var req normalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("body", err.Error(), nil))
		return
	}

	row := domain.RawRow(req.Row)
	if biomarker.RowName(row) == "" {
		s.writeError(c, domain.NewValidationError("row", "row must carry a biomarker name", nil))
		return
	}

	c.JSON(http.StatusOK, s.dashboard.Normalize(row, *req.Value, req.Demographic))
}

type classifyRequest struct {
	Value      *float64 `json:"value" binding:"required"`
	Optimal    string   `json:"optimal"`
	InRange    string   `json:"in_range"`
	OutOfRange string   `json:"out_of_range"`
	GraphRange string   `json:"graph_range"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("body", err.Error(), nil))
		return
	}

	c.JSON(http.StatusOK, service.ClassifyRanges(service.ClassifyParams{
		Value:      *req.Value,
		Optimal:    req.Optimal,
		InRange:    req.InRange,
		OutOfRange: req.OutOfRange,
		GraphRange: req.GraphRange,
	}))
}

// writeError maps pipeline errors onto HTTP responses.
func (s *Server) writeError(c *gin.Context, err error) {
	correlationID := c.GetString(middleware.CorrelationIDKey)

	var loadErr *domain.LoadError
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &loadErr):
		c.JSON(loadErrorStatus(loadErr), gin.H{
			"code":           loadErr.Code,
			"error":          loadErr.Message,
			"retryable":      loadErr.Retryable(),
			"correlation_id": correlationID,
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":           domain.ErrCodeInvalidInput,
			"error":          validationErr.Error(),
			"field":          validationErr.Field,
			"retryable":      false,
			"correlation_id": correlationID,
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"code":           "TIMEOUT",
			"error":          "loading biomarker data timed out",
			"retryable":      true,
			"correlation_id": correlationID,
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":           "INTERNAL",
			"error":          err.Error(),
			"retryable":      false,
			"correlation_id": correlationID,
		})
	}
}

func loadErrorStatus(err *domain.LoadError) int {
	switch err.Code {
	case domain.ErrCodeRequiredBiomarkerMissing:
		return http.StatusBadGateway
	case domain.ErrCodeSourceUnavailable, domain.ErrCodeNoValidRows:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
