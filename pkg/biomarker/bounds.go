package biomarker

import (
	"math"

	"github.com/biomarker-range-server/internal/domain"
)

// graphPaddingRatio is the share of the combined span added on both sides of the graph.
const graphPaddingRatio = 0.1

// defaultGraphBounds is used when a biomarker has no reference band at all.
var defaultGraphBounds = domain.Interval{Min: 0, Max: 1}

// GraphBounds derives the visual bounds of the range indicator. An explicit override wins;
// otherwise the union of the present bands is padded by 10% of its span and the floor is
// clamped at zero.
func GraphBounds(ranges domain.RangeSet, override *domain.Interval) domain.Interval {
	if override != nil {
		return *override
	}

	present := ranges.Present()
	if len(present) == 0 {
		return defaultGraphBounds
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, iv := range present {
		lo = math.Min(lo, iv.Min)
		hi = math.Max(hi, iv.Max)
	}

	padding := (hi - lo) * graphPaddingRatio
	return domain.Interval{
		Min: math.Max(0, lo-padding),
		Max: hi + padding,
	}
}
