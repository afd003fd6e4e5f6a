// Package biomarker holds the pure normalization pipeline: range parsing, status
// classification, history extraction and graph bound derivation. Nothing in here performs
// I/O; every function is safe for concurrent use.
package biomarker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/biomarker-range-server/internal/domain"
)

// Range notations accepted in the spreadsheet cells
var (
	boundedRangePattern = regexp.MustCompile(`^(\d+(?:\.\d*)?|\.\d+)-(\d+(?:\.\d*)?|\.\d+)$`)
	upperBoundPattern   = regexp.MustCompile(`^<(\d+(?:\.\d*)?|\.\d+)$`)
	lowerBoundPattern   = regexp.MustCompile(`^>(\d+(?:\.\d*)?|\.\d+)$`)
)

// ParseRange converts range notation into an interval. It returns nil for blank or
// unrecognized text, which callers treat as "no constraint".
//
//	"70-100" -> [70, 100]
//	"<5"     -> [0, 5]
//	">40"    -> [40, 80]
//
// The ">" form has no natural ceiling so twice the bound is used. Inverted bounds such as
// "9-3" yield nil.
func ParseRange(text string) *domain.Interval {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	if m := boundedRangePattern.FindStringSubmatch(s); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo != nil || errHi != nil {
			return nil
		}
		iv, err := domain.NewInterval(lo, hi)
		if err != nil {
			return nil
		}
		return &iv
	}

	if m := upperBoundPattern.FindStringSubmatch(s); m != nil {
		bound, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return &domain.Interval{Min: 0, Max: bound}
	}

	if m := lowerBoundPattern.FindStringSubmatch(s); m != nil {
		bound, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return &domain.Interval{Min: bound, Max: bound * 2}
	}

	return nil
}

// ParseRangeSet parses the three band notations at once.
func ParseRangeSet(optimal, inRange, outOfRange string) domain.RangeSet {
	return domain.RangeSet{
		Optimal:    ParseRange(optimal),
		InRange:    ParseRange(inRange),
		OutOfRange: ParseRange(outOfRange),
	}
}
