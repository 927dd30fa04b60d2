package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidLat,
		Message: "latitude must be between -90 and 90",
	}

	expected := "validation_invalid_latitude: latitude must be between -90 and 90"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeUpstreamPortal, "portal unreachable", underlying)
	wrapped := fmt.Errorf("loading config: %w", appErr)

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in chain")
	}
	if target.Code != ErrCodeUpstreamPortal {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeUpstreamPortal)
	}
	if !errors.Is(wrapped, underlying) {
		t.Error("errors.Is should reach the underlying error")
	}
}

func TestErrorCodeExitCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidLat, ExitValidation},
		{ErrCodeValidationInvalidTimeSlot, ExitValidation},
		{ErrCodeAuthSessionMissing, ExitAuth},
		{ErrCodeAuthSessionExpired, ExitAuth},
		{ErrCodeUpstreamPortal, ExitUpstream},
		{ErrCodeUpstreamRateLimited, ExitUpstream},
		{ErrCodeNotFoundForecast, ExitUpstream},
		{ErrCodeInternalUnexpected, ExitGeneric},
		{ErrorCode("something_else"), ExitGeneric},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorWithDetails(t *testing.T) {
	original := NewAppErrorWithDetails(ErrCodeValidationMinutesRange, "out of range", nil, map[string]any{"day": "mon"})
	enriched := original.WithDetails(map[string]any{"value": 1500})

	if len(original.Details) != 1 {
		t.Errorf("original details mutated: %v", original.Details)
	}
	if enriched.Details["day"] != "mon" || enriched.Details["value"] != 1500 {
		t.Errorf("unexpected merged details: %v", enriched.Details)
	}
}
