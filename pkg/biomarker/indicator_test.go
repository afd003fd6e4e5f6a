package biomarker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomarker-range-server/internal/domain"
)

func TestIndicator_FullBands(t *testing.T) {
	e := domain.BiomarkerEntity{
		Value: 120,
		Ranges: domain.RangeSet{
			Optimal:    &domain.Interval{Min: 50, Max: 100},
			InRange:    &domain.Interval{Min: 30, Max: 150},
			OutOfRange: &domain.Interval{Min: 0, Max: 30},
		},
		GraphMin: 0,
		GraphMax: 200,
	}

	ind := Indicator(e)

	assert.InDelta(t, 60, ind.MarkerPercent, 1e-9)
	assert.Equal(t, "+60%", ind.Deviation)

	expected := []domain.IndicatorZone{
		{Status: domain.StatusOutOfRange, StartPercent: 0, WidthPercent: 15},
		{Status: domain.StatusInRange, StartPercent: 15, WidthPercent: 60},
		{Status: domain.StatusOptimal, StartPercent: 25, WidthPercent: 25},
		{Status: domain.StatusOutOfRange, StartPercent: 50, WidthPercent: 50},
	}
	require.Len(t, ind.Zones, len(expected))
	for i, z := range expected {
		assert.Equal(t, z.Status, ind.Zones[i].Status, "zone %d", i)
		assert.InDelta(t, z.StartPercent, ind.Zones[i].StartPercent, 1e-9, "zone %d", i)
		assert.InDelta(t, z.WidthPercent, ind.Zones[i].WidthPercent, 1e-9, "zone %d", i)
	}
}

func TestIndicator_NoOutOfRangeBand(t *testing.T) {
	e := domain.BiomarkerEntity{
		Value:    0.63,
		Ranges:   creatinineRanges,
		GraphMin: 0.62,
		GraphMax: 1.58,
	}

	ind := Indicator(e)

	require.Len(t, ind.Zones, 2)
	assert.Equal(t, domain.StatusInRange, ind.Zones[0].Status)
	assert.Equal(t, domain.StatusOptimal, ind.Zones[1].Status)
	assert.InDelta(t, 1.0416666, ind.MarkerPercent, 1e-4)
	assert.Equal(t, "-34%", ind.Deviation)
}

func TestIndicator_MarkerClamped(t *testing.T) {
	e := domain.BiomarkerEntity{Value: 500, GraphMin: 0, GraphMax: 1}
	assert.Equal(t, 100.0, Indicator(e).MarkerPercent)

	e.Value = -3
	assert.Equal(t, 0.0, Indicator(e).MarkerPercent)

	e.GraphMax = 0
	assert.Equal(t, 50.0, Indicator(e).MarkerPercent)
	assert.Empty(t, Indicator(e).Zones)
}

func TestDeviation(t *testing.T) {
	optimal := &domain.Interval{Min: 80, Max: 120}

	tests := []struct {
		name     string
		value    float64
		optimal  *domain.Interval
		expected string
	}{
		{"At midpoint", 100, optimal, "+0%"},
		{"Above", 112, optimal, "+12%"},
		{"Below", 92, optimal, "-8%"},
		{"Rounds half up", 100.5, optimal, "+1%"},
		{"No optimal band", 42, nil, "+0%"},
		{"Zero midpoint", 3, &domain.Interval{Min: 0, Max: 0}, "+0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Deviation(tt.value, tt.optimal))
		})
	}
}
