package contract

import (
	"errors"
	"fmt"
)

var (
	ErrModelInvoke       = errors.New("model invoke failed")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrPromptMissing     = errors.New("required prompt is missing")
	ErrValidation        = errors.New("validation failed")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrToolNotFound      = errors.New("tool not found")
	ErrToolNotAllowed    = errors.New("tool not allowed for agent")
	ErrToolLoopExhausted = errors.New("tool loop exceeded max iterations")
	ErrTimeout           = errors.New("operation timed out")
)

// RequestError is a validation failure whose message is safe to return to
// the caller. It matches ErrValidation and, when set, Cause.
type RequestError struct {
	Msg   string
	Cause error
}

func InvalidRequest(cause error, format string, args ...any) *RequestError {
	return &RequestError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *RequestError) Error() string {
	return ErrValidation.Error() + ": " + e.Msg
}

func (e *RequestError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}
