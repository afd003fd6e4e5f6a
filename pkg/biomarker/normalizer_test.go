package biomarker

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomarker-range-server/internal/domain"
)

func creatineRow() domain.RawRow {
	return domain.RawRow{
		"Biomarker_Name":     "Creatine",
		"Unit":               "mg/dL",
		"Male_18-39_Optimal": "0.7-1.2",
		"Male_18-39_InRange": "1.2-1.5",
	}
}

func TestNormalizerBuild_CreatineScenario(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewNormalizer(logger)

	e := n.Build(creatineRow(), 0.63, "Male_18-39")

	assert.Equal(t, "Creatine", e.Name)
	assert.Equal(t, "mg/dL", e.Unit)
	assert.Equal(t, 0.63, e.Value)
	assert.Equal(t, domain.StatusOutOfRange, e.Status)
	require.NotNil(t, e.Ranges.Optimal)
	require.NotNil(t, e.Ranges.InRange)
	assert.Nil(t, e.Ranges.OutOfRange)
	assert.InDelta(t, 0.62, e.GraphMin, 1e-9)
	assert.InDelta(t, 1.58, e.GraphMax, 1e-9)
	assert.Nil(t, e.History)
	assert.Empty(t, hook.AllEntries())
}

func TestNormalizerBuild_Idempotent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	n := NewNormalizer(logger)

	row := creatineRow()
	row["Date1"] = "Jan 1, 2024"
	row["Value1"] = "1.0"

	first := n.Build(row, 0.9, "Male_18-39")
	second := n.Build(row, 0.9, "Male_18-39")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Build is not idempotent (-first +second):\n%s", diff)
	}
	assert.Len(t, row, 6, "row must not be mutated")
}

func TestNormalizerBuild_SeparatorVariants(t *testing.T) {
	logger, _ := test.NewNullLogger()
	n := NewNormalizer(logger)

	row := domain.RawRow{
		"Biomaker Name":         "Metabolic Health Score",
		"Male_18_39_Optimal":    "80-100",
		"Male_18_39_InRange":    "60-80",
		"Male_18_39_OutOfRange": "0-60",
	}

	e := n.Build(row, 78, "Male_18-39")

	assert.Equal(t, "Metabolic Health Score", e.Name)
	assert.Equal(t, domain.StatusInRange, e.Status)
	require.NotNil(t, e.Ranges.OutOfRange)
	assert.Equal(t, domain.Interval{Min: 0, Max: 60}, *e.Ranges.OutOfRange)
	assert.InDelta(t, 0, e.GraphMin, 1e-9)
	assert.InDelta(t, 110, e.GraphMax, 1e-9)
}

func TestNormalizerBuild_GraphRangeOverride(t *testing.T) {
	logger, _ := test.NewNullLogger()
	n := NewNormalizer(logger)

	row := creatineRow()
	row["Graph_Range"] = "0-3"

	e := n.Build(row, 1.0, "Male_18-39")

	assert.Equal(t, 0.0, e.GraphMin)
	assert.Equal(t, 3.0, e.GraphMax)
	assert.Equal(t, domain.StatusOptimal, e.Status)
}

func TestNormalizerBuild_UnparseableGraphRangeFallsBack(t *testing.T) {
	logger, _ := test.NewNullLogger()
	n := NewNormalizer(logger)

	row := creatineRow()
	row["Graph_Range"] = "n/a"

	e := n.Build(row, 0.63, "Male_18-39")

	assert.InDelta(t, 0.62, e.GraphMin, 1e-9)
	assert.InDelta(t, 1.58, e.GraphMax, 1e-9)
}

func TestNormalizerBuild_MissingRangeColumnsWarns(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewNormalizer(logger)

	row := domain.RawRow{"Biomarker_Name": "Vitamin D", "Unit": "ng/mL", "Female_40-59_Optimal": "40-60"}

	e := n.Build(row, 45, "Male_18-39")

	assert.True(t, e.Ranges.IsEmpty())
	assert.Equal(t, domain.StatusOutOfRange, e.Status)
	assert.Equal(t, 0.0, e.GraphMin)
	assert.Equal(t, 1.0, e.GraphMax)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Vitamin D", entry.Data["biomarker"])
	assert.Equal(t, []string{"Biomarker_Name", "Female_40-59_Optimal", "Unit"}, entry.Data["available_columns"])
}

func TestNormalizerBuild_Concurrent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	n := NewNormalizer(logger)
	row := creatineRow()

	want := n.Build(row, 1.3, "Male_18-39")

	var wg sync.WaitGroup
	results := make([]domain.BiomarkerEntity, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = n.Build(row, 1.3, "Male_18-39")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, cmp.Equal(want, got))
	}
}
