package service

import (
	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/pkg/biomarker"
)

// ClassifyParams is an ad-hoc classification request expressed in sheet notation.
type ClassifyParams struct {
	Value      float64 `json:"value"`
	Optimal    string  `json:"optimal,omitempty"`
	InRange    string  `json:"in_range,omitempty"`
	OutOfRange string  `json:"out_of_range,omitempty"`
	GraphRange string  `json:"graph_range,omitempty"`
}

// ClassifyResult is the outcome of ClassifyRanges.
type ClassifyResult struct {
	Status    domain.Status    `json:"status"`
	Ranges    domain.RangeSet  `json:"ranges"`
	GraphMin  float64          `json:"graphMin"`
	GraphMax  float64          `json:"graphMax"`
	Indicator domain.Indicator `json:"indicator"`
}

// ClassifyRanges parses the range notations and classifies the value against them.
func ClassifyRanges(params ClassifyParams) ClassifyResult {
	ranges := biomarker.ParseRangeSet(params.Optimal, params.InRange, params.OutOfRange)
	bounds := biomarker.GraphBounds(ranges, biomarker.ParseRange(params.GraphRange))
	status := biomarker.Classify(params.Value, ranges)

	entity := domain.BiomarkerEntity{
		Value:    params.Value,
		Status:   status,
		Ranges:   ranges,
		GraphMin: bounds.Min,
		GraphMax: bounds.Max,
	}

	return ClassifyResult{
		Status:    status,
		Ranges:    ranges,
		GraphMin:  bounds.Min,
		GraphMax:  bounds.Max,
		Indicator: biomarker.Indicator(entity),
	}
}
