package biomarker

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
)

// Normalizer turns raw spreadsheet rows into classified biomarker entities.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a Normalizer. A nil logger falls back to the standard logrus logger.
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Normalizer{logger: logger}
}

// Build assembles the entity for row, classifying value against the bands of demographic.
// A row without any range column for the demographic still yields an entity with an empty
// RangeSet; the miss is logged as a warning.
func (n *Normalizer) Build(row domain.RawRow, value float64, demographic string) domain.BiomarkerEntity {
	name := RowName(row)

	cells := make(map[RangeBand]string, len(Bands))
	for _, band := range Bands {
		if v, ok := lookupFirst(row, RangeColumns(demographic, band)); ok {
			cells[band] = v
		}
	}

	if len(cells) == 0 {
		columns := row.Columns()
		sort.Strings(columns)
		n.logger.WithFields(logrus.Fields{
			"biomarker":         name,
			"demographic":       demographic,
			"tried_columns":     RangeColumns(demographic, BandOptimal),
			"available_columns": columns,
		}).Warn("No range columns found for demographic")
	}

	ranges := ParseRangeSet(cells[BandOptimal], cells[BandInRange], cells[BandOutOfRange])

	var override *domain.Interval
	if raw, ok := row.Get(GraphRangeColumn); ok {
		override = ParseRange(raw)
	}
	bounds := GraphBounds(ranges, override)

	return domain.BiomarkerEntity{
		Name:     name,
		Unit:     RowUnit(row),
		Value:    value,
		Status:   Classify(value, ranges),
		Ranges:   ranges,
		GraphMin: bounds.Min,
		GraphMax: bounds.Max,
		History:  ExtractHistory(row, ranges),
	}
}
