package external

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
)

// FileSource reads the biomarker CSV from the local filesystem.
type FileSource struct {
	path   string
	logger *logrus.Logger
}

// NewFileSource creates the fallback ingestion source.
func NewFileSource(path string, logger *logrus.Logger) *FileSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileSource{path: path, logger: logger}
}

// FetchRows decodes and filters the local CSV file.
func (f *FileSource) FetchRows(ctx context.Context) (*domain.RowBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.path == "" {
		return nil, fmt.Errorf("failed to load local CSV: no path configured")
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load local CSV: %w", err)
	}
	defer file.Close()

	rows, err := DecodeCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load local CSV: %w", err)
	}

	valid := FilterRows(rows)
	f.logger.WithFields(logrus.Fields{
		"source": "file",
		"path":   f.path,
		"total":  len(rows),
		"valid":  len(valid),
	}).Info("Local CSV parsed")

	if len(valid) == 0 {
		return nil, domain.NewNoValidRowsError("local CSV", len(rows))
	}

	return &domain.RowBatch{Rows: valid, Origin: domain.OriginFallback}, nil
}
