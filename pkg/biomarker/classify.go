package biomarker

import "github.com/biomarker-range-server/internal/domain"

// Classify places value into a status band. Optimal is checked first, so a value inside
// overlapping optimal and in-range bands is optimal. A value outside every band, or a
// RangeSet with no bands at all, is out-of-range.
func Classify(value float64, ranges domain.RangeSet) domain.Status {
	if ranges.Optimal != nil && ranges.Optimal.Contains(value) {
		return domain.StatusOptimal
	}
	if ranges.InRange != nil && ranges.InRange.Contains(value) {
		return domain.StatusInRange
	}
	return domain.StatusOutOfRange
}
