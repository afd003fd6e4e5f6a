package biomarker

import (
	"strings"

	"github.com/biomarker-range-server/internal/domain"
)

// Column names used by the biomarker spreadsheet. The sheet has shipped with a misspelled
// name header, so every known spelling is listed.
var NameColumns = []string{"Biomarker_Name", "Biomaker Name", "Biomarker Name"}

const (
	UnitColumn       = "Unit"
	GraphRangeColumn = "Graph_Range"
)

// RangeBand names one of the three reference bands of a demographic.
type RangeBand string

const (
	BandOptimal    RangeBand = "Optimal"
	BandInRange    RangeBand = "InRange"
	BandOutOfRange RangeBand = "OutOfRange"
)

// Bands lists the range bands in classification priority order.
var Bands = []RangeBand{BandOptimal, BandInRange, BandOutOfRange}

// ColumnAliases expands a demographic key into the spellings it may have in the header.
// Spreadsheets mix "Male_18-39" and "Male_18_39", so the key is tried as given, with dashes
// turned into underscores and with underscores turned into dashes.
func ColumnAliases(demographic string) []string {
	variants := []string{
		demographic,
		strings.ReplaceAll(demographic, "-", "_"),
		strings.ReplaceAll(demographic, "_", "-"),
	}

	out := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// RangeColumns returns the candidate column names holding band for demographic.
func RangeColumns(demographic string, band RangeBand) []string {
	aliases := ColumnAliases(demographic)
	cols := make([]string, len(aliases))
	for i, a := range aliases {
		cols[i] = a + "_" + string(band)
	}
	return cols
}

// lookupFirst returns the first present value among columns.
func lookupFirst(row domain.RawRow, columns []string) (string, bool) {
	for _, c := range columns {
		if v, ok := row.Get(c); ok {
			return v, true
		}
	}
	return "", false
}

// RowName returns the biomarker name of row, trimmed, or "" when no name column is present.
func RowName(row domain.RawRow) string {
	v, _ := lookupFirst(row, NameColumns)
	return strings.TrimSpace(v)
}

// RowUnit returns the unit of row.
func RowUnit(row domain.RawRow) string {
	v, _ := row.Get(UnitColumn)
	return strings.TrimSpace(v)
}

// ResolveDemographic picks the demographic whose range columns actually exist in row. The
// preferred key is tried first, then each candidate; when none has an optimal column the
// preferred key is returned unchanged.
func ResolveDemographic(row domain.RawRow, preferred string, candidates []string) string {
	keys := append([]string{preferred}, candidates...)
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := lookupFirst(row, RangeColumns(k, BandOptimal)); ok {
			return k
		}
	}
	return preferred
}
