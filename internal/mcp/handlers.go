package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/internal/service"
	"github.com/biomarker-range-server/pkg/biomarker"
)

// ListBiomarkersParams defines parameters for list_biomarkers tool
type ListBiomarkersParams struct{}

// GetBiomarkerParams defines parameters for get_biomarker tool
type GetBiomarkerParams struct {
	Key string `json:"key" jsonschema:"catalog key of the biomarker"`
}

// RefreshBiomarkersParams defines parameters for refresh_biomarkers tool
type RefreshBiomarkersParams struct{}

// NormalizeRowParams defines parameters for normalize_row tool
type NormalizeRowParams struct {
	Row         map[string]string `json:"row" jsonschema:"raw spreadsheet row keyed by column header"`
	Value       float64           `json:"value" jsonschema:"current value to classify"`
	Demographic string            `json:"demographic,omitempty" jsonschema:"demographic key such as Male_18-39"`
}

// ClassifyValueParams defines parameters for classify_value tool
type ClassifyValueParams struct {
	Value      float64 `json:"value"`
	Optimal    string  `json:"optimal,omitempty"`
	InRange    string  `json:"in_range,omitempty"`
	OutOfRange string  `json:"out_of_range,omitempty"`
	GraphRange string  `json:"graph_range,omitempty"`
}

// handleListBiomarkers handles the list_biomarkers tool invocation
func (s *Server) handleListBiomarkers(ctx context.Context, req *mcp.CallToolRequest, params ListBiomarkersParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_biomarkers").Info("Tool invoked")

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap, err := s.dashboard.Snapshot(ctx)
	if err != nil {
		return s.createLoadErrorResult(err), nil, nil
	}
	return s.createJSONResult(snap)
}

// handleGetBiomarker handles the get_biomarker tool invocation
func (s *Server) handleGetBiomarker(ctx context.Context, req *mcp.CallToolRequest, params GetBiomarkerParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{"tool": "get_biomarker", "key": params.Key}).Info("Tool invoked")

	if params.Key == "" {
		return s.createErrorResult("Missing required parameter", domain.NewValidationError("key", "key is required", nil)), nil, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap, err := s.dashboard.Snapshot(ctx)
	if err != nil {
		return s.createLoadErrorResult(err), nil, nil
	}

	view, ok := snap.Find(params.Key)
	if !ok {
		return s.createErrorResult("Unknown biomarker", fmt.Errorf("%q is not part of the dashboard", params.Key)), nil, nil
	}
	return s.createJSONResult(view)
}

// handleRefreshBiomarkers handles the refresh_biomarkers tool invocation
func (s *Server) handleRefreshBiomarkers(ctx context.Context, req *mcp.CallToolRequest, params RefreshBiomarkersParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "refresh_biomarkers").Info("Tool invoked")

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap, err := s.dashboard.Refresh(ctx)
	if err != nil {
		return s.createLoadErrorResult(err), nil, nil
	}
	return s.createJSONResult(snap)
}

// handleNormalizeRow handles the normalize_row tool invocation
func (s *Server) handleNormalizeRow(ctx context.Context, req *mcp.CallToolRequest, params NormalizeRowParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "normalize_row").Info("Tool invoked")

	row := domain.RawRow(params.Row)
	if biomarker.RowName(row) == "" {
		return s.createErrorResult("Invalid row", domain.NewValidationError("row", "row must carry a biomarker name", nil)), nil, nil
	}

	return s.createJSONResult(s.dashboard.Normalize(row, params.Value, params.Demographic))
}

// handleClassifyValue handles the classify_value tool invocation
func (s *Server) handleClassifyValue(ctx context.Context, req *mcp.CallToolRequest, params ClassifyValueParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "classify_value").Info("Tool invoked")

	return s.createJSONResult(service.ClassifyRanges(service.ClassifyParams(params)))
}

func (s *Server) createJSONResult(result any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, result, nil
}

// createLoadErrorResult reports a failed load cycle; load failures are always retryable.
func (s *Server) createLoadErrorResult(err error) *mcp.CallToolResult {
	var loadErr *domain.LoadError
	if errors.As(err, &loadErr) {
		s.logger.WithError(err).WithField("code", loadErr.Code).Warn("Biomarker load failed")
		return s.createErrorResult(fmt.Sprintf("%s (retryable)", loadErr.Code), errors.New(loadErr.Message))
	}
	s.logger.WithError(err).Error("Biomarker load failed")
	return s.createErrorResult("Biomarker load failed", err)
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
