package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Source      SourceConfig    `mapstructure:"source"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	MCP         MCPConfig       `mapstructure:"mcp"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"` // gin mode: "debug", "release", "test"
}

// SourceConfig configures the primary spreadsheet export and the local fallback file
type SourceConfig struct {
	SheetURL     string        `mapstructure:"sheet_url"`
	LocalPath    string        `mapstructure:"local_path"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    int           `mapstructure:"rate_limit"` // requests per second against the sheet
	MaxRedirects int           `mapstructure:"max_redirects"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker guarding the sheet export
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	RedisURL       string        `mapstructure:"redis_url"` // empty disables the redis tier
	DefaultTTL     time.Duration `mapstructure:"default_ttl"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PoolSize       int           `mapstructure:"pool_size"`
	PoolTimeout    time.Duration `mapstructure:"pool_timeout"`
	MemoryMaxItems int           `mapstructure:"memory_max_items"`
	MemoryTTL      time.Duration `mapstructure:"memory_ttl"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"` // "stdout", "stderr" or "file"
	Filename string `mapstructure:"filename"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName     string        `mapstructure:"server_name"`
	ServerVersion  string        `mapstructure:"server_version"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DashboardConfig selects the demographic and the biomarkers a snapshot must contain
type DashboardConfig struct {
	Demographic           string          `mapstructure:"demographic"`
	DemographicCandidates []string        `mapstructure:"demographic_candidates"`
	Biomarkers            []BiomarkerSpec `mapstructure:"biomarkers"`
}

// BiomarkerSpec describes how to pick one required biomarker out of the filtered rows and
// which current value to classify it with.
type BiomarkerSpec struct {
	Key          string   `mapstructure:"key" json:"key"`
	DisplayName  string   `mapstructure:"display_name" json:"displayName,omitempty"`
	ExactNames   []string `mapstructure:"exact_names" json:"exactNames,omitempty"`
	Prefix       string   `mapstructure:"prefix" json:"prefix,omitempty"`
	Contains     string   `mapstructure:"contains" json:"contains,omitempty"`
	CurrentValue float64  `mapstructure:"current_value" json:"currentValue"`
}

// HasMatcher reports whether the spec can match anything at all.
func (s BiomarkerSpec) HasMatcher() bool {
	return len(s.ExactNames) > 0 || s.Prefix != "" || s.Contains != ""
}
