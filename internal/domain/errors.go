package domain

import (
	"fmt"
	"strings"
	"time"
)

// Error codes for load-cycle failures. Only these cross the pipeline boundary; parse-level
// anomalies degrade silently inside the pipeline.
const (
	ErrCodeSourceUnavailable        = "SOURCE_UNAVAILABLE"
	ErrCodeNoValidRows              = "NO_VALID_ROWS"
	ErrCodeRequiredBiomarkerMissing = "REQUIRED_BIOMARKER_MISSING"
	ErrCodeInvalidInput             = "INVALID_INPUT"
)

// Sentinels for errors.Is. They compare by code only.
var (
	ErrSourceUnavailable        = &LoadError{Code: ErrCodeSourceUnavailable, Message: "no biomarker rows obtainable from any source"}
	ErrNoValidRows              = &LoadError{Code: ErrCodeNoValidRows, Message: "no valid data rows found"}
	ErrRequiredBiomarkerMissing = &LoadError{Code: ErrCodeRequiredBiomarkerMissing, Message: "required biomarker data not found"}
)

// LoadError is a fatal failure of one data-load cycle.
type LoadError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Found     []string  `json:"found,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Cause     error     `json:"-"`
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is matches any LoadError carrying the same code.
func (e *LoadError) Is(target error) bool {
	t, ok := target.(*LoadError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller should offer a retry. Every load failure is.
func (e *LoadError) Retryable() bool {
	return true
}

// NewSourceUnavailableError reports that neither primary nor fallback produced rows.
func NewSourceUnavailableError(message string, cause error) *LoadError {
	return &LoadError{
		Code:      ErrCodeSourceUnavailable,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewNoValidRowsError reports a source that returned rows without a usable biomarker name.
func NewNoValidRowsError(source string, total int) *LoadError {
	return &LoadError{
		Code:      ErrCodeNoValidRows,
		Message:   fmt.Sprintf("no valid data rows found in %s", source),
		Details:   fmt.Sprintf("%d rows parsed, none carry a biomarker name", total),
		Timestamp: time.Now().UTC(),
	}
}

// NewRequiredBiomarkerMissingError lists what was found so the failure can be diagnosed.
func NewRequiredBiomarkerMissingError(missing []string, totalRows, filteredRows int, available []string) *LoadError {
	return &LoadError{
		Code: ErrCodeRequiredBiomarkerMissing,
		Message: fmt.Sprintf(
			"required biomarker data not found (missing: %s). Found %d total rows, %d filtered rows. Available biomarkers: %s",
			strings.Join(missing, ", "), totalRows, filteredRows, strings.Join(available, ", "),
		),
		Found:     available,
		Timestamp: time.Now().UTC(),
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
