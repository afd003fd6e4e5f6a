package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/biomarker-range-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return NewManagerWithFile("")
}

// NewManagerWithFile creates a manager reading an explicit config file instead of searching
// the default locations. An empty path behaves like NewManager.
func NewManagerWithFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/biomarker-range-server/")
	}

	// Set environment variable prefix and enable automatic env binding
	v.SetEnvPrefix("BIOMARKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(config.Dashboard.Biomarkers) == 0 {
		config.Dashboard.Biomarkers = DefaultBiomarkers()
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.mode", "release")

	// Source defaults
	v.SetDefault("source.sheet_url", "")
	v.SetDefault("source.local_path", "./data/biomarkers.csv")
	v.SetDefault("source.timeout", "15s")
	v.SetDefault("source.rate_limit", 2)
	v.SetDefault("source.max_redirects", 5)
	v.SetDefault("source.breaker.max_requests", 5)
	v.SetDefault("source.breaker.interval", "30s")
	v.SetDefault("source.breaker.timeout", "60s")
	v.SetDefault("source.breaker.min_requests", 3)
	v.SetDefault("source.breaker.failure_ratio", 0.6)

	// Cache defaults
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")
	v.SetDefault("cache.memory_max_items", 16)
	v.SetDefault("cache.memory_ttl", "1m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.filename", "")

	// MCP defaults
	v.SetDefault("mcp.server_name", "biomarker-range-server")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.request_timeout", "30s")

	// Dashboard defaults
	v.SetDefault("dashboard.demographic", "Male_18-39")
	v.SetDefault("dashboard.demographic_candidates", []string{"Male_18-39", "Male_18_39"})
}

// DefaultBiomarkers is the catalog shown on the dashboard when none is configured.
func DefaultBiomarkers() []domain.BiomarkerSpec {
	return []domain.BiomarkerSpec{
		{
			Key:          "metabolic",
			ExactNames:   []string{"Metabolic Health Score"},
			Prefix:       "Metabolic",
			CurrentValue: 78,
		},
		{
			Key:          "creatinine",
			DisplayName:  "Creatinine",
			ExactNames:   []string{"Creatine", "Creatinine"},
			Contains:     "creatin",
			CurrentValue: 0.63,
		},
	}
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetSourceConfig returns the ingestion source configuration
func (m *Manager) GetSourceConfig() *domain.SourceConfig {
	return &m.config.Source
}

// GetDashboardConfig returns the dashboard catalog configuration
func (m *Manager) GetDashboardConfig() *domain.DashboardConfig {
	return &m.config.Dashboard
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate sources
	if config.Source.SheetURL == "" && config.Source.LocalPath == "" {
		return fmt.Errorf("at least one of source.sheet_url or source.local_path is required")
	}
	if config.Source.SheetURL != "" {
		u, err := url.ParseRequestURI(config.Source.SheetURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid sheet URL: %s", config.Source.SheetURL)
		}
	}
	if config.Source.Timeout < 0 {
		return fmt.Errorf("source timeout must not be negative")
	}

	// Validate cache configuration
	if config.Cache.MemoryMaxItems <= 0 {
		return fmt.Errorf("cache.memory_max_items must be positive, got %d", config.Cache.MemoryMaxItems)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if config.Logging.Output == "file" && config.Logging.Filename == "" {
		return fmt.Errorf("logging.filename is required when logging.output is file")
	}

	// Validate dashboard catalog
	if config.Dashboard.Demographic == "" {
		return fmt.Errorf("dashboard demographic is required")
	}
	seen := make(map[string]bool, len(config.Dashboard.Biomarkers))
	for i, spec := range config.Dashboard.Biomarkers {
		if spec.Key == "" {
			return fmt.Errorf("dashboard biomarker %d has no key", i)
		}
		if seen[spec.Key] {
			return fmt.Errorf("duplicate dashboard biomarker key: %s", spec.Key)
		}
		seen[spec.Key] = true
		if !spec.HasMatcher() {
			return fmt.Errorf("dashboard biomarker %s needs exact_names, prefix or contains", spec.Key)
		}
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
