package external

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomarker-range-server/internal/domain"
)

func TestDecodeCSV(t *testing.T) {
	input := "\xEF\xBB\xBF Biomarker_Name , Unit,Male_18-39_Optimal\n" +
		"Glucose,mg/dL,70-99\n" +
		"\n" +
		"\"Creatine, serum\",mg/dL\n" +
		"HbA1c,%,4-5.6,extra,cells\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.RawRow{"Biomarker_Name": "Glucose", "Unit": "mg/dL", "Male_18-39_Optimal": "70-99"}, rows[0])

	assert.Equal(t, "Creatine, serum", rows[1]["Biomarker_Name"])
	_, ok := rows[1].Get("Male_18-39_Optimal")
	assert.False(t, ok, "missing trailing cell must be absent")

	assert.Len(t, rows[2], 3, "cells past the header are ignored")
}

func TestDecodeCSV_LazyQuotes(t *testing.T) {
	input := "Biomarker_Name,Unit\nVitamin \"D\" 25-OH,ng/mL\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vitamin \"D\" 25-OH", rows[0]["Biomarker_Name"])
}

func TestDecodeCSV_DuplicateHeaderKeepsFirst(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader("Biomarker_Name,Unit,Unit\nGlucose,mg/dL,mmol/L\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mg/dL", rows[0]["Unit"])
}

func TestDecodeCSV_Empty(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	assert.Error(t, err)

	rows, err := DecodeCSV(strings.NewReader("Biomarker_Name,Unit\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFilterRows(t *testing.T) {
	rows := []domain.RawRow{
		{"Biomarker_Name": "Glucose"},
		{"Biomarker_Name": ""},
		{"Biomarker_Name": "   "},
		{"Unit": "mg/dL"},
		{"Biomarker_Name": "Glucose Graph Value"},
		{"Biomarker_Name": "Reference Value: fasting"},
		{"Biomaker Name": "Creatine"},
	}

	filtered := FilterRows(rows)

	require.Len(t, filtered, 2)
	assert.Equal(t, "Glucose", filtered[0]["Biomarker_Name"])
	assert.Equal(t, "Creatine", filtered[1]["Biomaker Name"])
	for _, row := range filtered {
		assert.True(t, IsDataRow(row))
	}
}
