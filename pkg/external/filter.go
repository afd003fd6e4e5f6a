package external

import (
	"strings"

	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/pkg/biomarker"
)

// IsDataRow reports whether row describes a biomarker. Rows without a name, and the helper
// rows the sheet uses for graph values, are not data.
func IsDataRow(row domain.RawRow) bool {
	name := biomarker.RowName(row)
	if name == "" {
		return false
	}
	if strings.Contains(name, "Graph Value") || strings.Contains(strings.ToLower(name), "value:") {
		return false
	}
	return true
}

// FilterRows keeps only the data rows, preserving order.
func FilterRows(rows []domain.RawRow) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(rows))
	for _, row := range rows {
		if IsDataRow(row) {
			out = append(out, row)
		}
	}
	return out
}
