package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biomarker-range-server/internal/domain"
)

func TestMatchesSpec(t *testing.T) {
	catalog := testCatalog().Biomarkers
	metabolic, creatinine := catalog[0], catalog[1]

	tests := []struct {
		name string
		spec domain.BiomarkerSpec
		row  string
		want bool
	}{
		{"exact name", metabolic, "Metabolic Health Score", true},
		{"prefix", metabolic, "Metabolic Score v2", true},
		{"prefix is case sensitive", metabolic, "metabolic score", false},
		{"graph helper excluded", metabolic, "Metabolic Graph", false},
		{"exact creatine", creatinine, "Creatine", true},
		{"contains ignores case", creatinine, "Serum CREATININE", true},
		{"graph helper excluded for contains", creatinine, "Creatinine Graph", false},
		{"unrelated", creatinine, "Glucose", false},
		{"empty name", creatinine, "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesSpec(tt.spec, tt.row); got != tt.want {
				t.Errorf("MatchesSpec(%q, %q) = %v, want %v", tt.spec.Key, tt.row, got, tt.want)
			}
		})
	}
}

func TestSelectRows_FirstMatchWins(t *testing.T) {
	rows := []domain.RawRow{
		{"Biomarker_Name": "Creatinine", "Unit": "first"},
		{"Biomarker_Name": "Creatine", "Unit": "second"},
	}
	selected, missing := SelectRows(rows, testCatalog().Biomarkers)

	assert.Equal(t, []string{"metabolic"}, missing)
	assert.Equal(t, "first", selected["creatinine"]["Unit"])
}

func TestCompleteness(t *testing.T) {
	complete := Completeness(testCatalog().Biomarkers)

	assert.Empty(t, complete(sheetRows()))
	assert.Equal(t, []string{"metabolic", "creatinine"}, complete(nil))
}
