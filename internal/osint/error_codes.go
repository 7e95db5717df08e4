package osint

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable error classification.
type ErrorCode string

const (
	ErrBadRequest          ErrorCode = "bad_request"
	ErrUnauthorized        ErrorCode = "unauthorized"
	ErrInsufficientCredits ErrorCode = "insufficient_credits"
	ErrForbidden           ErrorCode = "forbidden"
	ErrNotFound            ErrorCode = "not_found"
	ErrValidation          ErrorCode = "validation_failed"
	ErrRateLimited         ErrorCode = "rate_limited"
	ErrServerError         ErrorCode = "server_error"
	ErrTimeout             ErrorCode = "timeout"
	ErrCircuitOpen         ErrorCode = "circuit_open"
	ErrUnknown             ErrorCode = "unknown"
)

// IsRetryable reports whether a retry may succeed.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case ErrRateLimited, ErrServerError, ErrTimeout, ErrCircuitOpen:
		return true
	default:
		return false
	}
}

// Suggestion returns a short hint for resolving the error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'oi auth login' with a valid API key"
	case ErrInsufficientCredits:
		return "Top up credits on the OSINT Industries dashboard; check with 'oi credits'"
	case ErrForbidden:
		return "Check that your plan includes this lookup"
	case ErrNotFound:
		return "Check the API base URL"
	case ErrRateLimited:
		return "Wait a moment and retry, or lower --concurrency"
	case ErrValidation, ErrBadRequest:
		return "Check the identifier and --type"
	case ErrServerError:
		return "The API encountered an error; try again later"
	case ErrTimeout:
		return "Raise --request-timeout or lower the search --timeout"
	case ErrCircuitOpen:
		return "Too many recent failures; wait before retrying"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status to an ErrorCode.
func ErrorCodeFromStatus(status int) ErrorCode {
	switch status {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 402:
		return ErrInsufficientCredits
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 408:
		return ErrTimeout
	case 422:
		return ErrValidation
	case 429:
		return ErrRateLimited
	default:
		if status >= 500 && status < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError is the JSON error shape written to stderr in JSON mode.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewStructuredError builds a StructuredError with the code's defaults.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewValidationError reports a bad enumerated input along with the values
// that would have been accepted.
func NewValidationError(field, got string, allowed []string) *StructuredError {
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, strings.Join(allowed, ", ")),
		Suggestion:    fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")),
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

// StructuredErrorFromError classifies any error.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code := ErrorCodeFromStatus(apiErr.StatusCode)
		out := NewStructuredError(code, apiErr.Body)
		out.Context = map[string]any{"status_code": apiErr.StatusCode}
		if apiErr.RequestID != "" {
			out.Context["request_id"] = apiErr.RequestID
		}
		return out
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		out := NewStructuredError(ErrRateLimited, rateLimitErr.Error())
		out.Context = map[string]any{"retry_after": rateLimitErr.RetryAfter.String()}
		return out
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return NewStructuredError(ErrUnauthorized, authErr.Error())
	}

	var cbErr *CircuitBreakerError
	if errors.As(err, &cbErr) {
		return NewStructuredError(ErrCircuitOpen, cbErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewStructuredError(ErrTimeout, err.Error())
	}

	return &StructuredError{Code: ErrUnknown, Message: err.Error()}
}
