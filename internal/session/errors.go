package session

import "fmt"

// ErrorCode is a stable, client-facing classification of a lifecycle failure.
type ErrorCode string

const (
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "SESSION_NOT_FOUND"
	CodeExpired        ErrorCode = "SESSION_EXPIRED"
	CodeNotApproved    ErrorCode = "SESSION_NOT_APPROVED"
	CodeAlreadyApplied ErrorCode = "SESSION_ALREADY_APPLIED"
)

// LifecycleError is a caller error with a stable code. External-write
// failures are deliberately NOT LifecycleErrors; they stay plain wrapped
// errors so callers can treat them as retryable.
type LifecycleError struct {
	Code    ErrorCode
	Message string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewLifecycleError builds a LifecycleError with a formatted message.
func NewLifecycleError(code ErrorCode, format string, args ...any) *LifecycleError {
	return &LifecycleError{Code: code, Message: fmt.Sprintf(format, args...)}
}
