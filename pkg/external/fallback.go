package external

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
)

// CompletenessFunc reports which required biomarkers are missing from rows. An empty result
// means the rows are complete.
type CompletenessFunc func(rows []domain.RawRow) (missing []string)

// FallbackSource tries the primary source and falls back to a secondary one when the primary
// fails or lacks required biomarkers. If both fail but the primary produced rows, the
// incomplete primary rows are used.
type FallbackSource struct {
	primary  domain.RowSource
	fallback domain.RowSource
	complete CompletenessFunc
	logger   *logrus.Logger
}

// NewFallbackSource wires the two sources. fallback and complete may be nil.
func NewFallbackSource(primary, fallback domain.RowSource, complete CompletenessFunc, logger *logrus.Logger) *FallbackSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FallbackSource{
		primary:  primary,
		fallback: fallback,
		complete: complete,
		logger:   logger,
	}
}

// FetchRows implements domain.RowSource.
func (f *FallbackSource) FetchRows(ctx context.Context) (*domain.RowBatch, error) {
	primary, primaryErr := f.primary.FetchRows(ctx)
	if primaryErr == nil {
		missing := f.missing(primary.Rows)
		if len(missing) == 0 {
			f.logger.Info("Primary source has all required biomarkers")
			return &domain.RowBatch{Rows: primary.Rows, Origin: domain.OriginPrimary}, nil
		}
		primaryErr = fmt.Errorf("required biomarkers not found in primary source (missing: %s)", strings.Join(missing, ", "))
	}

	f.logger.WithError(primaryErr).Warn("Primary source failed or incomplete, trying fallback")

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fallbackErr := errors.New("no fallback source configured")
	if f.fallback != nil {
		batch, err := f.fallback.FetchRows(ctx)
		if err == nil {
			f.logger.Info("Loaded biomarker rows from fallback source")
			return &domain.RowBatch{Rows: batch.Rows, Origin: domain.OriginFallback}, nil
		}
		fallbackErr = err
	}

	if primary != nil && len(primary.Rows) > 0 {
		f.logger.WithError(fallbackErr).Warn("Using primary data despite missing some biomarkers")
		return &domain.RowBatch{Rows: primary.Rows, Origin: domain.OriginBestAvailable}, nil
	}

	return nil, domain.NewSourceUnavailableError(
		fmt.Sprintf("failed to fetch data from both primary and fallback sources. Primary error: %v. Fallback error: %v", primaryErr, fallbackErr),
		errors.Join(primaryErr, fallbackErr),
	)
}

func (f *FallbackSource) missing(rows []domain.RawRow) []string {
	if f.complete == nil {
		return nil
	}
	return f.complete(rows)
}
