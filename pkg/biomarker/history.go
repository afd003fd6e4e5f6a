package biomarker

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/biomarker-range-server/internal/domain"
)

var (
	slotIndexPattern     = regexp.MustCompile(`\d+`)
	leadingNumberPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// historyDateLayouts are tried before falling back to dateparse, in the order the sheet
// has been seen to use them.
var historyDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2 Jan 2006",
	time.RFC3339,
}

// ExtractHistory collects dated readings embedded in a raw row. Date columns are those whose
// name contains "date" (but not "range"); value columns contain "value", "result" or
// "reading" (but not "range", "graph" or "current"). Columns pair up by the first number in
// their name, defaulting to 0. Cells are trimmed; pairs missing either side, or whose value
// has no numeric prefix, are dropped. The result is ordered by date and is nil when nothing
// survives.
func ExtractHistory(row domain.RawRow, ranges domain.RangeSet) []domain.HistoricalPoint {
	columns := row.Columns()
	sort.Strings(columns)

	dates := make(map[string]string)
	values := make(map[string]string)
	for _, col := range columns {
		raw, ok := row.Get(col)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(col))
		switch {
		case isDateSlot(key):
			dates[slotKey(key)] = raw
		case isValueSlot(key):
			values[slotKey(key)] = raw
		}
	}

	slots := make([]string, 0, len(dates))
	for slot := range dates {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		return slotLess(slots[i], slots[j])
	})

	var points []domain.HistoricalPoint
	for _, slot := range slots {
		raw, ok := values[slot]
		if !ok {
			continue
		}
		v, ok := parseLeadingFloat(raw)
		if !ok {
			continue
		}
		points = append(points, domain.HistoricalPoint{
			Value:  v,
			Date:   dates[slot],
			Status: Classify(v, ranges),
		})
	}

	if len(points) == 0 {
		return nil
	}
	SortHistory(points)
	return points
}

// SortHistory orders points by date, oldest first. When both dates of a pair are parseable
// they compare as instants; otherwise the raw strings compare lexicographically. The sort is
// stable.
func SortHistory(points []domain.HistoricalPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return historyLess(points[i].Date, points[j].Date)
	})
}

func historyLess(a, b string) bool {
	ta, okA := ParseHistoryDate(a)
	tb, okB := ParseHistoryDate(b)
	if okA && okB {
		return ta.Before(tb)
	}
	return a < b
}

// ParseHistoryDate interprets a sheet date cell.
func ParseHistoryDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range historyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isDateSlot(key string) bool {
	return strings.Contains(key, "date") && !strings.Contains(key, "range")
}

func isValueSlot(key string) bool {
	if !strings.Contains(key, "value") && !strings.Contains(key, "result") && !strings.Contains(key, "reading") {
		return false
	}
	return !strings.Contains(key, "range") && !strings.Contains(key, "graph") && !strings.Contains(key, "current")
}

// slotKey returns the first digit run of a column name without leading zeros, or "0" when
// there is none. Indexes of any length stay distinct.
func slotKey(key string) string {
	m := strings.TrimLeft(slotIndexPattern.FindString(key), "0")
	if m == "" {
		return "0"
	}
	return m
}

// slotLess orders slot keys numerically.
func slotLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// parseLeadingFloat reads the numeric prefix of s, so "1.5 mg/dL" yields 1.5.
// Non-finite results are rejected.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNumberPattern.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
