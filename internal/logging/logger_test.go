package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomarker-range-server/internal/domain"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    domain.LoggingConfig
		level     logrus.Level
		jsonLines bool
	}{
		{"JSON debug", domain.LoggingConfig{Level: "debug", Format: "json"}, logrus.DebugLevel, true},
		{"Text warn", domain.LoggingConfig{Level: "warn", Format: "text"}, logrus.WarnLevel, false},
		{"Unknown level", domain.LoggingConfig{Level: "verbose", Format: "json"}, logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.level, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.jsonLines, isJSON)
			assert.Equal(t, os.Stdout, logger.Out)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, err := NewLogger(domain.LoggingConfig{Level: "info", Format: "json", Output: OutputFile, Filename: path})
	require.NoError(t, err)

	logger.WithField("biomarker", "Creatinine").Info("Loaded snapshot")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "Loaded snapshot", entry["message"])
	assert.Equal(t, "Creatinine", entry["biomarker"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLogger_InvalidOutput(t *testing.T) {
	_, err := NewLogger(domain.LoggingConfig{Output: "syslog"})
	assert.Error(t, err)

	_, err = NewLogger(domain.LoggingConfig{Output: OutputFile})
	assert.Error(t, err)
}

func TestNewMCPLogger_ForcesStderr(t *testing.T) {
	logger, err := NewMCPLogger(domain.LoggingConfig{Level: "info", Output: OutputStdout})
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, logger.Out)
}
