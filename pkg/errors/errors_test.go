package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates error with all defaults", func(t *testing.T) {
		err := New(ErrCodeConfigValidation, "configuration is invalid")
		if err == nil {
			t.Fatal("New returned nil")
		}
		if err.Code != ErrCodeConfigValidation {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfigValidation)
		}
		if err.Message != "configuration is invalid" {
			t.Errorf("Message = %q, want %q", err.Message, "configuration is invalid")
		}
		if err.Category != CategoryConfiguration {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfiguration)
		}
		if err.Details == nil {
			t.Error("Details map is nil")
		}
		if err.Context == nil {
			t.Error("Context map is nil")
		}
		if err.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	})

	t.Run("sets correct retryable defaults", func(t *testing.T) {
		retryableErr := New(ErrCodeConnectionTimeout, "connection timed out")
		if !retryableErr.Retryable {
			t.Error("ConnectionTimeout should be retryable by default")
		}

		nonRetryableErr := New(ErrCodeConfigValidation, "config invalid")
		if nonRetryableErr.Retryable {
			t.Error("ConfigValidation should not be retryable by default")
		}
	})
}

func TestGetCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code ErrorCode
		want ErrorCategory
	}{
		{ErrCodeConfigValidation, CategoryConfiguration},
		{ErrCodeConfigLoad, CategoryConfiguration},
		{ErrCodeConnectionFailed, CategoryConnection},
		{ErrCodeConnectionTimeout, CategoryConnection},
		{ErrCodeAuthenticationFailed, CategoryConnection},
		{ErrCodeOperationFailed, CategoryOperation},
		{ErrCodeOperationUnsupported, CategoryOperation},
		{ErrCodeCapabilityNotSupported, CategoryCapability},
		{ErrCodeSetupFailed, CategorySetup},
		{ErrCodeInvalidBreakdown, CategoryMeasurement},
		{ErrCodeNoContext, CategoryMeasurement},
		{ErrCodeInternalError, CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := GetCategory(tt.code); got != tt.want {
				t.Errorf("GetCategory(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	t.Run("bare error", func(t *testing.T) {
		err := New(ErrCodeOperationFailed, "insert rejected")
		want := "OPERATION_FAILED: insert rejected"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("with adapter", func(t *testing.T) {
		err := New(ErrCodeOperationFailed, "insert rejected").WithAdapter("mongodb")
		want := "[mongodb] OPERATION_FAILED: insert rejected"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("with adapter and operation", func(t *testing.T) {
		err := New(ErrCodeOperationFailed, "insert rejected").
			WithAdapter("mongodb").
			WithOperation("insert")
		want := "[mongodb:insert] OPERATION_FAILED: insert rejected"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})
}

func TestWrappingCompatibility(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("socket closed")
	err := New(ErrCodeConnectionFailed, "lost connection").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach the cause through Unwrap")
	}

	var benchErr *BenchError
	if !errors.As(error(err), &benchErr) {
		t.Fatal("errors.As failed to extract *BenchError")
	}
	if benchErr.Code != ErrCodeConnectionFailed {
		t.Errorf("extracted Code = %v, want %v", benchErr.Code, ErrCodeConnectionFailed)
	}

	if !errors.Is(err, New(ErrCodeConnectionFailed, "different message")) {
		t.Error("Is should match on code, not message")
	}
}

func TestNewConfigValidation(t *testing.T) {
	t.Parallel()

	t.Run("aggregates every problem", func(t *testing.T) {
		problems := []error{
			fmt.Errorf("uri is required"),
			fmt.Errorf("database is required"),
			fmt.Errorf("pool_size must not be negative"),
		}
		err := NewConfigValidation(problems)

		if err.Code != ErrCodeConfigValidation {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfigValidation)
		}
		if got := err.Details["problem_count"]; got != 3 {
			t.Errorf("problem_count = %v, want 3", got)
		}

		all := err.Cause.Error()
		for _, p := range problems {
			if !strings.Contains(all, p.Error()) {
				t.Errorf("aggregated cause %q is missing %q", all, p.Error())
			}
		}
	})

	t.Run("retains category and non-retryable default", func(t *testing.T) {
		err := NewConfigValidation([]error{fmt.Errorf("bad")})
		if !IsConfigurationError(err) {
			t.Error("IsConfigurationError = false")
		}
		if err.Retryable {
			t.Error("validation error must not be retryable")
		}
	})
}

func TestCategoryPredicates(t *testing.T) {
	t.Parallel()

	if IsConnectionError(nil) {
		t.Error("IsConnectionError(nil) = true")
	}
	if IsConnectionError(fmt.Errorf("plain error")) {
		t.Error("IsConnectionError(plain) = true")
	}
	if !IsConnectionError(New(ErrCodeConnectionTimeout, "timeout")) {
		t.Error("IsConnectionError(timeout) = false")
	}
	if !IsCapabilityError(New(ErrCodeCapabilityNotSupported, "no explain")) {
		t.Error("IsCapabilityError = false")
	}
	if !IsSetupError(New(ErrCodeSetupFailed, "create failed")) {
		t.Error("IsSetupError = false")
	}
}

func TestStringIncludesDiagnostics(t *testing.T) {
	t.Parallel()

	err := New(ErrCodeOperationFailed, "boom").
		WithAdapter("postgres").
		WithDetail("rows", 0).
		WithCause(fmt.Errorf("constraint violation"))

	s := err.String()
	for _, want := range []string{"OPERATION_FAILED", "postgres", "rows", "constraint violation"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
