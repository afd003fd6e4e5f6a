package external

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomarker-range-server/internal/domain"
)

type stubSource struct {
	batch *domain.RowBatch
	err   error
	calls int
}

func (s *stubSource) FetchRows(ctx context.Context) (*domain.RowBatch, error) {
	s.calls++
	return s.batch, s.err
}

func rowsNamed(names ...string) *domain.RowBatch {
	rows := make([]domain.RawRow, len(names))
	for i, n := range names {
		rows[i] = domain.RawRow{"Biomarker_Name": n}
	}
	return &domain.RowBatch{Rows: rows}
}

// requireCreatine reports "creatinine" missing unless a Creatine row is present.
func requireCreatine(rows []domain.RawRow) []string {
	for _, r := range rows {
		if r["Biomarker_Name"] == "Creatine" {
			return nil
		}
	}
	return []string{"creatinine"}
}

func TestFallbackSource(t *testing.T) {
	tests := []struct {
		name          string
		primary       *stubSource
		fallback      *stubSource
		origin        domain.SourceOrigin
		rowCount      int
		fallbackCalls int
		wantErr       error
	}{
		{
			name:          "Complete primary",
			primary:       &stubSource{batch: rowsNamed("Metabolic Health Score", "Creatine")},
			fallback:      &stubSource{batch: rowsNamed("Creatine")},
			origin:        domain.OriginPrimary,
			rowCount:      2,
			fallbackCalls: 0,
		},
		{
			name:          "Incomplete primary uses fallback",
			primary:       &stubSource{batch: rowsNamed("Metabolic Health Score")},
			fallback:      &stubSource{batch: rowsNamed("Creatine")},
			origin:        domain.OriginFallback,
			rowCount:      1,
			fallbackCalls: 1,
		},
		{
			name:          "Failed primary uses fallback",
			primary:       &stubSource{err: errors.New("connection refused")},
			fallback:      &stubSource{batch: rowsNamed("Creatine", "Glucose", "LDL")},
			origin:        domain.OriginFallback,
			rowCount:      3,
			fallbackCalls: 1,
		},
		{
			name:          "Both fail but primary has rows",
			primary:       &stubSource{batch: rowsNamed("Metabolic Health Score", "Glucose")},
			fallback:      &stubSource{err: errors.New("file not found")},
			origin:        domain.OriginBestAvailable,
			rowCount:      2,
			fallbackCalls: 1,
		},
		{
			name:          "Both fail",
			primary:       &stubSource{err: ErrSheetForbidden},
			fallback:      &stubSource{err: domain.NewNoValidRowsError("local CSV", 0)},
			fallbackCalls: 1,
			wantErr:       domain.ErrSourceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			src := NewFallbackSource(tt.primary, tt.fallback, requireCreatine, logger)

			batch, err := src.FetchRows(context.Background())

			assert.Equal(t, 1, tt.primary.calls)
			assert.Equal(t, tt.fallbackCalls, tt.fallback.calls)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, batch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.origin, batch.Origin)
			assert.Len(t, batch.Rows, tt.rowCount)
		})
	}
}

func TestFallbackSource_BothFailNamesCauses(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := NewFallbackSource(
		&stubSource{err: ErrSheetForbidden},
		&stubSource{err: domain.NewNoValidRowsError("local CSV", 0)},
		nil, logger,
	)

	_, err := src.FetchRows(context.Background())
	require.Error(t, err)

	var loadErr *domain.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, domain.ErrCodeSourceUnavailable, loadErr.Code)
	assert.Contains(t, loadErr.Message, "access denied")
	assert.Contains(t, loadErr.Message, "local CSV")
	assert.ErrorIs(t, err, ErrSheetForbidden)
	assert.ErrorIs(t, err, domain.ErrNoValidRows)
}

func TestFallbackSource_NoFallbackConfigured(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := NewFallbackSource(&stubSource{err: ErrSheetTimeout}, nil, nil, logger)

	_, err := src.FetchRows(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "no fallback source configured")
}
