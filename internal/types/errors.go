package types

import (
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All packages MUST use these constants instead of hardcoded strings.
const (
	// Validation
	ErrCodeValidationInvalidLat      ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon      ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationInvalidWeekday  ErrorCode = "validation_invalid_weekday"
	ErrCodeValidationInvalidTimeSlot ErrorCode = "validation_invalid_time_slot"
	ErrCodeValidationMinutesRange    ErrorCode = "validation_minutes_out_of_range"
	ErrCodeValidationDayDisabled     ErrorCode = "validation_day_disabled"
	ErrCodeValidationRowIndex        ErrorCode = "validation_row_index_out_of_range"
	ErrCodeValidationForecastURL     ErrorCode = "validation_invalid_forecast_url"

	// Auth
	ErrCodeAuthSessionMissing ErrorCode = "auth_session_missing"
	ErrCodeAuthSessionExpired ErrorCode = "auth_session_expired"

	// Not Found
	ErrCodeNotFoundForecast ErrorCode = "not_found_forecast"

	// Internal/Upstream
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeInternalPreferences ErrorCode = "internal_preferences_error"
	ErrCodeUpstreamPortal      ErrorCode = "upstream_portal_unavailable"
	ErrCodeUpstreamForecast    ErrorCode = "upstream_forecast_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamBadResponse ErrorCode = "upstream_bad_response"
)

// Process exit statuses used by the CLI.
const (
	ExitGeneric    = 1
	ExitValidation = 2
	ExitAuth       = 3
	ExitUpstream   = 4
)

// ExitCode maps an ErrorCode to the process exit status reported by mistctl.
// Returns ExitGeneric for unrecognized error codes.
func (c ErrorCode) ExitCode() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return ExitValidation
	case strings.HasPrefix(s, "auth_"):
		return ExitAuth
	case strings.HasPrefix(s, "upstream_"), strings.HasPrefix(s, "not_found_"):
		return ExitUpstream
	default:
		return ExitGeneric
	}
}

// AppError is the standard application error type used throughout the module.
// All domain and client errors should be expressed as AppError to enable
// consistent formatting, exit status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status corresponding to this error's code.
func (e *AppError) ExitCode() int {
	return e.Code.ExitCode()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
