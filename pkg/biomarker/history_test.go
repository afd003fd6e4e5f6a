package biomarker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomarker-range-server/internal/domain"
)

var creatinineRanges = domain.RangeSet{
	Optimal: &domain.Interval{Min: 0.7, Max: 1.2},
	InRange: &domain.Interval{Min: 1.2, Max: 1.5},
}

func TestExtractHistory_PairsAndOrders(t *testing.T) {
	row := domain.RawRow{
		"Biomarker_Name": "Creatinine",
		"Date1":          "Feb 1, 2024",
		"Value1":         "1.5",
		"Date2":          "Jan 1, 2024",
		"Value2":         "1.0",
	}

	points := ExtractHistory(row, creatinineRanges)

	require.Len(t, points, 2)
	assert.Equal(t, domain.HistoricalPoint{Value: 1.0, Date: "Jan 1, 2024", Status: domain.StatusOptimal}, points[0])
	assert.Equal(t, domain.HistoricalPoint{Value: 1.5, Date: "Feb 1, 2024", Status: domain.StatusInRange}, points[1])
}

func TestExtractHistory_DropsIncompletePairs(t *testing.T) {
	row := domain.RawRow{
		"Date1":  "Jan 1, 2024",
		"Date2":  "Feb 1, 2024",
		"Value2": "1.1",
		"Value3": "0.9",
	}

	points := ExtractHistory(row, creatinineRanges)

	require.Len(t, points, 1)
	assert.Equal(t, "Feb 1, 2024", points[0].Date)
}

func TestExtractHistory_TrimsCells(t *testing.T) {
	row := domain.RawRow{
		"Date1":  "   ",
		"Value1": "1.0",
		"Date2":  " Jan 1, 2024 ",
		"Value2": " 1.1 ",
		"Date3":  "Feb 1, 2024",
		"Value3": "\t",
	}

	points := ExtractHistory(row, creatinineRanges)

	require.Len(t, points, 1)
	assert.Equal(t, domain.HistoricalPoint{Value: 1.1, Date: "Jan 1, 2024", Status: domain.StatusOptimal}, points[0])
}

func TestExtractHistory_LongSlotIndexes(t *testing.T) {
	row := domain.RawRow{
		"Date":                      "Jan 1, 2024",
		"Value":                     "1.0",
		"Date99999999999999999999":  "Feb 1, 2024",
		"Value99999999999999999999": "1.3",
		"Date007":                   "Mar 1, 2024",
		"Value7":                    "0.8",
	}

	points := ExtractHistory(row, creatinineRanges)

	require.Len(t, points, 3)
	assert.Equal(t, domain.HistoricalPoint{Value: 1.0, Date: "Jan 1, 2024", Status: domain.StatusOptimal}, points[0])
	assert.Equal(t, domain.HistoricalPoint{Value: 1.3, Date: "Feb 1, 2024", Status: domain.StatusInRange}, points[1])
	assert.Equal(t, domain.HistoricalPoint{Value: 0.8, Date: "Mar 1, 2024", Status: domain.StatusOptimal}, points[2])
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "0", slotKey("date"))
	assert.Equal(t, "0", slotKey("value0"))
	assert.Equal(t, "7", slotKey("date007"))
	assert.Equal(t, "99999999999999999999", slotKey("value99999999999999999999"))

	assert.True(t, slotLess("9", "10"))
	assert.True(t, slotLess("12", "13"))
	assert.False(t, slotLess("100", "99"))
}

func TestExtractHistory_ColumnClassification(t *testing.T) {
	row := domain.RawRow{
		"Test Date":     "2024-03-01",
		"Result":        "0.9 mg/dL",
		"Current Value": "5",
		"Graph Value 1": "6",
		"Date Range 1":  "2024-01-01",
		"Value Range 1": "7",
	}

	points := ExtractHistory(row, creatinineRanges)

	require.Len(t, points, 1)
	assert.InDelta(t, 0.9, points[0].Value, 1e-9)
	assert.Equal(t, "2024-03-01", points[0].Date)
	assert.Equal(t, domain.StatusOptimal, points[0].Status)
}

func TestExtractHistory_NonNumericValue(t *testing.T) {
	row := domain.RawRow{
		"Date1":  "Jan 1, 2024",
		"Value1": "pending",
		"Date2":  "Feb 1, 2024",
		"Value2": "1e999",
	}

	assert.Nil(t, ExtractHistory(row, creatinineRanges))
}

func TestExtractHistory_NoHistoryColumns(t *testing.T) {
	row := domain.RawRow{"Biomarker_Name": "Glucose", "Unit": "mg/dL"}
	assert.Nil(t, ExtractHistory(row, creatinineRanges))
}

func TestSortHistory_UnparseableDatesCompareAsText(t *testing.T) {
	points := []domain.HistoricalPoint{
		{Value: 2, Date: "visit b"},
		{Value: 1, Date: "visit a"},
	}

	SortHistory(points)

	assert.Equal(t, "visit a", points[0].Date)
	assert.Equal(t, "visit b", points[1].Date)
}

// Parseable dates only compare as instants against each other; against free text they
// compare as strings, so a mixed series is not totally ordered.
func TestSortHistory_MixedDatesAndText(t *testing.T) {
	points := []domain.HistoricalPoint{
		{Value: 1, Date: "Mar 1, 2024"},
		{Value: 2, Date: "baseline"},
		{Value: 3, Date: "Jan 1, 2024"},
	}

	SortHistory(points)

	dates := make([]string, len(points))
	for i, p := range points {
		dates[i] = p.Date
	}
	assert.Equal(t, []string{"Jan 1, 2024", "Mar 1, 2024", "baseline"}, dates)
}

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"1.5", 1.5, true},
		{" 1.5 mg/dL", 1.5, true},
		{"-2", -2, true},
		{".5", 0.5, true},
		{"3e2", 300, true},
		{"mg 5", 0, false},
		{"", 0, false},
		{"1e999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLeadingFloat(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseHistoryDate(t *testing.T) {
	for _, s := range []string{"Jan 1, 2024", "January 1, 2024", "2024-01-01", "1/1/2024"} {
		t.Run(s, func(t *testing.T) {
			d, ok := ParseHistoryDate(s)
			require.True(t, ok)
			assert.Equal(t, 2024, d.Year())
			assert.Equal(t, 1, d.YearDay())
		})
	}

	_, ok := ParseHistoryDate("")
	assert.False(t, ok)
}
