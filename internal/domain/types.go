// Package domain contains the core entities of the biomarker range pipeline: raw spreadsheet
// rows, reference intervals, status bands and the normalized biomarker entity handed to
// presentation.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status is the classification of a biomarker value against its reference bands.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInRange    Status = "in-range"
	StatusOutOfRange Status = "out-of-range"
)

// SourceOrigin records which ingestion source produced a batch of rows.
type SourceOrigin string

const (
	OriginPrimary       SourceOrigin = "primary"
	OriginFallback      SourceOrigin = "fallback"
	OriginBestAvailable SourceOrigin = "best-available"
)

var (
	ErrInvalidStatus   = errors.New("invalid biomarker status")
	ErrInvalidInterval = errors.New("invalid interval")
)

// IsValid reports whether s is one of the three known bands.
func (s Status) IsValid() bool {
	switch s {
	case StatusOptimal, StatusInRange, StatusOutOfRange:
		return true
	default:
		return false
	}
}

// String returns the wire form of the status.
func (s Status) String() string {
	return string(s)
}

// Label returns the human readable band name used in reports and CLI output.
func (s Status) Label() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusInRange:
		return "In range"
	case StatusOutOfRange:
		return "Out of range"
	default:
		return "Unknown"
	}
}

// ParseStatus converts the wire form back into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// IsValid reports whether the origin is known.
func (o SourceOrigin) IsValid() bool {
	switch o {
	case OriginPrimary, OriginFallback, OriginBestAvailable:
		return true
	default:
		return false
	}
}

// RawRow is one untyped record from the ingestion source keyed by column name.
// A missing key and an empty value are both treated as absent.
type RawRow map[string]string

// Get returns the value stored under column and whether it is present (non-empty).
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r[column]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Columns returns the column names of the row in no particular order.
func (r RawRow) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	return cols
}

// Interval is a closed numeric reference band. Min is never greater than Max.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewInterval builds an interval, rejecting inverted bounds.
func NewInterval(lo, hi float64) (Interval, error) {
	if lo > hi {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Min: lo, Max: hi}, nil
}

// Contains reports whether v lies within the interval, bounds included.
func (i Interval) Contains(v float64) bool {
	return v >= i.Min && v <= i.Max
}

// Span returns Max - Min.
func (i Interval) Span() float64 {
	return i.Max - i.Min
}

// Midpoint returns the centre of the interval.
func (i Interval) Midpoint() float64 {
	return (i.Min + i.Max) / 2
}

// RangeSet holds the three optional reference bands of one biomarker and demographic.
type RangeSet struct {
	Optimal    *Interval `json:"optimal,omitempty"`
	InRange    *Interval `json:"inRange,omitempty"`
	OutOfRange *Interval `json:"outOfRange,omitempty"`
}

// IsEmpty reports whether no band is defined.
func (r RangeSet) IsEmpty() bool {
	return r.Optimal == nil && r.InRange == nil && r.OutOfRange == nil
}

// Present returns the defined bands in optimal, in-range, out-of-range order.
func (r RangeSet) Present() []Interval {
	out := make([]Interval, 0, 3)
	for _, iv := range []*Interval{r.Optimal, r.InRange, r.OutOfRange} {
		if iv != nil {
			out = append(out, *iv)
		}
	}
	return out
}

// HistoricalPoint is one dated reading taken from a raw row. Date is kept as written in the
// source because it is not guaranteed to be parseable.
type HistoricalPoint struct {
	Value  float64 `json:"value"`
	Date   string  `json:"date"`
	Status Status  `json:"status"`
}

// BiomarkerEntity is the normalized, classified biomarker consumed by presentation.
// It is built once per load cycle and never mutated afterwards.
type BiomarkerEntity struct {
	Name     string            `json:"name"`
	Unit     string            `json:"unit"`
	Value    float64           `json:"value"`
	Status   Status            `json:"status"`
	Ranges   RangeSet          `json:"ranges"`
	GraphMin float64           `json:"graphMin"`
	GraphMax float64           `json:"graphMax"`
	History  []HistoricalPoint `json:"historicalData,omitempty"`
}

// IndicatorZone is one coloured segment of the range indicator, in percent of the graph span.
type IndicatorZone struct {
	Status       Status  `json:"status"`
	StartPercent float64 `json:"startPercent"`
	WidthPercent float64 `json:"widthPercent"`
}

// Indicator is the renderable geometry derived from an entity.
type Indicator struct {
	MarkerPercent float64         `json:"markerPercent"`
	Zones         []IndicatorZone `json:"zones"`
	Deviation     string          `json:"deviation"`
}

// BiomarkerView pairs an entity with the catalog key it was selected for and its geometry.
type BiomarkerView struct {
	Key       string          `json:"key"`
	Entity    BiomarkerEntity `json:"entity"`
	Indicator Indicator       `json:"indicator"`
}

// RowBatch is what an ingestion source yields: the filtered rows and where they came from.
type RowBatch struct {
	Rows   []RawRow     `json:"rows"`
	Origin SourceOrigin `json:"origin"`
}

// Snapshot is the outcome of one data-load cycle.
type Snapshot struct {
	ID          string          `json:"id"`
	LoadedAt    time.Time       `json:"loadedAt"`
	Origin      SourceOrigin    `json:"origin"`
	Demographic string          `json:"demographic"`
	Biomarkers  []BiomarkerView `json:"biomarkers"`
}

// Find returns the view selected for key.
func (s *Snapshot) Find(key string) (BiomarkerView, bool) {
	for _, b := range s.Biomarkers {
		if b.Key == key {
			return b, true
		}
	}
	return BiomarkerView{}, false
}
