package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for categorization
const (
	// Client errors (4xx)
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"

	// Server errors (5xx)
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeExternalAPI = "EXTERNAL_API_ERROR"
	ErrCodeTimeout     = "TIMEOUT_ERROR"

	// Pass-level errors
	ErrCodeRedirect         = "REDIRECT"
	ErrCodeCollectionFailed = "COLLECTION_FAILED"
	ErrCodeBrowserFailed    = "BROWSER_FAILED"
	ErrCodeEscalationFailed = "ESCALATION_FAILED"

	// Per-field outcomes. These are counted, never propagated as pass
	// failures.
	ErrCodeFieldUnmatched   = "FIELD_UNMATCHED"
	ErrCodeMenuTimeout      = "MENU_TIMEOUT"
	ErrCodeValidationFailed = "OPTION_VALIDATION_FAILED"
)

// AppError is the base error type for bridge-facing failures.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Cause      error          `json:"-"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// NewError creates a new AppError
func NewError(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func ErrValidation(message string) *AppError {
	return NewError(ErrCodeValidation, message, http.StatusBadRequest)
}

func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ErrInternal(message string) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return NewError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func ErrExternalAPI(service string, err error) *AppError {
	return NewError(ErrCodeExternalAPI, fmt.Sprintf("External API error: %s", service), http.StatusBadGateway).
		WithCause(err).
		WithMetadata("service", service)
}

// ErrRedirect signals that the real form lives at a different
// deployment; callers navigate there instead of retrying.
func ErrRedirect(url string) *AppError {
	return NewError(ErrCodeRedirect, "form lives at a different deployment", http.StatusConflict).
		WithMetadata("url", url)
}

func ErrCollectionFailed(reason string, err error) *AppError {
	return NewError(ErrCodeCollectionFailed, fmt.Sprintf("Field collection failed: %s", reason), http.StatusUnprocessableEntity).
		WithCause(err)
}

func ErrBrowserFailed(reason string, err error) *AppError {
	return NewError(ErrCodeBrowserFailed, fmt.Sprintf("Browser failure: %s", reason), http.StatusUnprocessableEntity).
		WithCause(err)
}

func ErrEscalationFailed(reason string, err error) *AppError {
	return NewError(ErrCodeEscalationFailed, fmt.Sprintf("Escalation failed: %s", reason), http.StatusBadGateway).
		WithCause(err)
}

// FieldError is the per-field failure record. It satisfies error so it
// can travel through the usual return paths, but handlers catch it
// locally and convert it into an unmatched count; it never aborts a
// pass.
type FieldError struct {
	Code    string
	FieldID string
	Label   string
	Err     error
}

// Error implements the error interface
func (e *FieldError) Error() string {
	ident := ""
	if e.FieldID != "" || e.Label != "" {
		ident = fmt.Sprintf(" field %q (%s)", e.Label, e.FieldID)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s]%s: %v", e.Code, ident, e.Err)
	}
	return fmt.Sprintf("[%s]%s", e.Code, ident)
}

// Unwrap returns the underlying error
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for error comparison
func (e *FieldError) Is(target error) bool {
	t, ok := target.(*FieldError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel field errors (used with errors.Is)
var (
	ErrFieldUnmatched = &FieldError{Code: ErrCodeFieldUnmatched}
	ErrMenuTimeout    = &FieldError{Code: ErrCodeMenuTimeout}
	ErrOptionNotValid = &FieldError{Code: ErrCodeValidationFailed}
)

// UnmatchedField creates an unmatched-field error.
func UnmatchedField(fieldID, label string, err error) *FieldError {
	return &FieldError{Code: ErrCodeFieldUnmatched, FieldID: fieldID, Label: label, Err: err}
}

// MenuTimeoutField creates a menu-never-appeared error.
func MenuTimeoutField(fieldID, label string) *FieldError {
	return &FieldError{Code: ErrCodeMenuTimeout, FieldID: fieldID, Label: label}
}

// OptionValidationField creates an option-validation failure: the
// resolved value was not positively confirmed in the option set, so the
// field was not committed.
func OptionValidationField(fieldID, label, value string) *FieldError {
	return &FieldError{
		Code:    ErrCodeValidationFailed,
		FieldID: fieldID,
		Label:   label,
		Err:     fmt.Errorf("value %q not present in options", value),
	}
}

// IsFieldError reports whether err is a per-field outcome rather than a
// pass-level fault.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
