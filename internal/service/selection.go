package service

import (
	"strings"

	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/pkg/biomarker"
	"github.com/biomarker-range-server/pkg/external"
)

// graphMarker flags helper rows that only carry chart data.
const graphMarker = "Graph"

// MatchesSpec reports whether a biomarker name satisfies spec. Exact names always match;
// prefix and substring matches skip graph helper rows. The substring match ignores case.
func MatchesSpec(spec domain.BiomarkerSpec, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, exact := range spec.ExactNames {
		if name == exact {
			return true
		}
	}
	if strings.Contains(name, graphMarker) {
		return false
	}
	if spec.Prefix != "" && strings.HasPrefix(name, spec.Prefix) {
		return true
	}
	if spec.Contains != "" && strings.Contains(strings.ToLower(name), strings.ToLower(spec.Contains)) {
		return true
	}
	return false
}

// SelectRows picks, for every spec, the first row in order whose name matches. The result is
// keyed by spec key; missing lists the keys with no match, in catalog order.
func SelectRows(rows []domain.RawRow, specs []domain.BiomarkerSpec) (selected map[string]domain.RawRow, missing []string) {
	selected = make(map[string]domain.RawRow, len(specs))
	for _, spec := range specs {
		for _, row := range rows {
			if MatchesSpec(spec, biomarker.RowName(row)) {
				selected[spec.Key] = row
				break
			}
		}
		if _, ok := selected[spec.Key]; !ok {
			missing = append(missing, spec.Key)
		}
	}
	return selected, missing
}

// Completeness returns the predicate the fallback source uses to decide whether the primary
// rows carry every required biomarker.
func Completeness(specs []domain.BiomarkerSpec) external.CompletenessFunc {
	return func(rows []domain.RawRow) []string {
		_, missing := SelectRows(rows, specs)
		return missing
	}
}

// rowNames lists the names of rows in order, for diagnostics.
func rowNames(rows []domain.RawRow) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := biomarker.RowName(row); name != "" {
			names = append(names, name)
		}
	}
	return names
}
