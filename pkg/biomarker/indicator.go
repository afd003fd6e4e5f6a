package biomarker

import (
	"fmt"
	"math"

	"github.com/biomarker-range-server/internal/domain"
)

// Indicator computes the geometry of the range indicator for an entity: the marker position,
// the coloured zones and the deviation from the optimal midpoint. Positions are percentages of
// the graph span.
func Indicator(e domain.BiomarkerEntity) domain.Indicator {
	span := e.GraphMax - e.GraphMin
	return domain.Indicator{
		MarkerPercent: markerPercent(e.Value, e.GraphMin, span),
		Zones:         indicatorZones(e.Ranges, e.GraphMin, e.GraphMax),
		Deviation:     Deviation(e.Value, e.Ranges.Optimal),
	}
}

func markerPercent(value, graphMin, span float64) float64 {
	if span <= 0 {
		return 50
	}
	return clampPercent((value - graphMin) / span * 100)
}

func indicatorZones(r domain.RangeSet, graphMin, graphMax float64) []domain.IndicatorZone {
	span := graphMax - graphMin
	if span <= 0 {
		return nil
	}

	var zones []domain.IndicatorZone
	add := func(status domain.Status, from, to float64) {
		start := clampPercent((from - graphMin) / span * 100)
		end := clampPercent((to - graphMin) / span * 100)
		if end <= start {
			return
		}
		zones = append(zones, domain.IndicatorZone{Status: status, StartPercent: start, WidthPercent: end - start})
	}

	if oor := r.OutOfRange; oor != nil {
		inRangeFloor := math.Inf(1)
		if r.InRange != nil {
			inRangeFloor = r.InRange.Min
		}
		if oor.Min == 0 || oor.Min < inRangeFloor {
			end := oor.Min
			switch {
			case r.InRange != nil:
				end = r.InRange.Min
			case r.Optimal != nil:
				end = r.Optimal.Min
			}
			add(domain.StatusOutOfRange, graphMin, end)
		}
	}
	if r.InRange != nil {
		add(domain.StatusInRange, r.InRange.Min, r.InRange.Max)
	}
	if r.Optimal != nil {
		add(domain.StatusOptimal, r.Optimal.Min, r.Optimal.Max)
	}
	if r.OutOfRange != nil {
		var upper *float64
		switch {
		case r.Optimal != nil:
			upper = &r.Optimal.Max
		case r.InRange != nil:
			upper = &r.InRange.Max
		}
		if upper != nil {
			add(domain.StatusOutOfRange, *upper, graphMax)
		}
	}
	return zones
}

// Deviation formats the signed, rounded percentage by which value differs from the midpoint
// of the optimal band, e.g. "+12%" or "-8%". Without an optimal band (or with a zero
// midpoint) it is "+0%".
func Deviation(value float64, optimal *domain.Interval) string {
	if optimal == nil {
		return "+0%"
	}
	mid := optimal.Midpoint()
	if mid == 0 {
		return "+0%"
	}
	pct := (value - mid) / mid * 100
	rounded := int(math.Floor(pct + 0.5))
	if pct >= 0 {
		return fmt.Sprintf("+%d%%", rounded)
	}
	return fmt.Sprintf("%d%%", rounded)
}

func clampPercent(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}
