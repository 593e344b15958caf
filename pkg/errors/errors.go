// Package errors provides the structured error system for the benchmark
// harness with error codes, categories, and context.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ErrorCode identifies a class of benchmark failure.
type ErrorCode string

const (
	// Configuration errors: raised before any network attempt.
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeConfigLoad       ErrorCode = "CONFIG_LOAD"

	// Connection errors: no measurement is possible without a connection.
	ErrCodeConnectionFailed     ErrorCode = "CONNECTION_FAILED"
	ErrCodeConnectionTimeout    ErrorCode = "CONNECTION_TIMEOUT"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"

	// Operation errors: captured per-result, never abort a run.
	ErrCodeOperationFailed      ErrorCode = "OPERATION_FAILED"
	ErrCodeOperationUnsupported ErrorCode = "OPERATION_UNSUPPORTED"

	// Capability errors: capability-gated call made without checking.
	ErrCodeCapabilityNotSupported ErrorCode = "CAPABILITY_NOT_SUPPORTED"

	// Fixture errors.
	ErrCodeSetupFailed ErrorCode = "SETUP_FAILED"

	// Measurement errors.
	ErrCodeInvalidBreakdown ErrorCode = "INVALID_BREAKDOWN"
	ErrCodeNoContext        ErrorCode = "NO_CONTEXT"

	// Internal fallback.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory is the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryConnection    ErrorCategory = "connection"
	CategoryOperation     ErrorCategory = "operation"
	CategoryCapability    ErrorCategory = "capability"
	CategorySetup         ErrorCategory = "setup"
	CategoryMeasurement   ErrorCategory = "measurement"
	CategoryInternal      ErrorCategory = "internal"
)

// BenchError is a structured error with context and metadata.
type BenchError struct {
	Code     ErrorCode              `json:"code"`
	Category ErrorCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`

	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"` // Not serialized to avoid circular refs
	Timestamp time.Time         `json:"timestamp"`

	Adapter   string `json:"adapter,omitempty"`
	Operation string `json:"operation,omitempty"`

	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (e *BenchError) Error() string {
	if e.Adapter != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Adapter, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Adapter, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *BenchError) Is(target error) bool {
	if benchErr, ok := target.(*BenchError); ok {
		return e.Code == benchErr.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *BenchError) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Adapter != "" {
		parts = append(parts, fmt.Sprintf("Adapter=%s", e.Adapter))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if e.Retryable {
		parts = append(parts, "Retryable=true")
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("BenchError{%s}", strings.Join(parts, ", "))
}

// New creates a new benchmark error with default values.
func New(code ErrorCode, message string) *BenchError {
	return &BenchError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
		Context:   make(map[string]string),
		Retryable: IsRetryableByDefault(code),
	}
}

// Newf creates a new benchmark error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *BenchError {
	return New(code, fmt.Sprintf(format, args...))
}

// NewConfigValidation aggregates every validation problem into a single
// configuration error. Callers see all problems at once, not just the first.
func NewConfigValidation(problems []error) *BenchError {
	var merr *multierror.Error
	for _, p := range problems {
		merr = multierror.Append(merr, p)
	}
	return New(ErrCodeConfigValidation, "configuration validation failed").
		WithDetail("problem_count", len(problems)).
		WithCause(merr.ErrorOrNil())
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CONFIG_"):
		return CategoryConfiguration
	case strings.HasPrefix(codeStr, "CONNECTION_") || strings.HasPrefix(codeStr, "AUTHENTICATION_"):
		return CategoryConnection
	case strings.HasPrefix(codeStr, "OPERATION_"):
		return CategoryOperation
	case strings.HasPrefix(codeStr, "CAPABILITY_"):
		return CategoryCapability
	case strings.HasPrefix(codeStr, "SETUP_"):
		return CategorySetup
	case strings.HasPrefix(codeStr, "INVALID_BREAKDOWN") || strings.HasPrefix(codeStr, "NO_CONTEXT"):
		return CategoryMeasurement
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
func IsRetryableByDefault(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		ErrCodeConnectionFailed:  true,
		ErrCodeConnectionTimeout: true,
		ErrCodeInternalError:     true,
	}
	return retryableCodes[code]
}

// WithContext adds contextual information to an error.
func (e *BenchError) WithContext(key, value string) *BenchError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds detailed information to an error.
func (e *BenchError) WithDetail(key string, value interface{}) *BenchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithAdapter sets the adapter name for an error.
func (e *BenchError) WithAdapter(adapter string) *BenchError {
	e.Adapter = adapter
	return e
}

// WithOperation sets the operation kind for an error.
func (e *BenchError) WithOperation(operation string) *BenchError {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause.
func (e *BenchError) WithCause(cause error) *BenchError {
	e.Cause = cause
	return e
}

// Predicates used at the benchmark loop boundary.

// IsConfigurationError reports whether err is a configuration problem.
func IsConfigurationError(err error) bool {
	return hasCategory(err, CategoryConfiguration)
}

// IsConnectionError reports whether err is a connection problem.
func IsConnectionError(err error) bool {
	return hasCategory(err, CategoryConnection)
}

// IsCapabilityError reports whether err is a capability-gate violation.
func IsCapabilityError(err error) bool {
	return hasCategory(err, CategoryCapability)
}

// IsSetupError reports whether err is a fixture provisioning problem.
func IsSetupError(err error) bool {
	return hasCategory(err, CategorySetup)
}

func hasCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}
	if benchErr, ok := err.(*BenchError); ok {
		return benchErr.Category == category
	}
	return false
}
