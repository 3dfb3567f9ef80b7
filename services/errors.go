package services

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable classification surfaced to callers.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
)

// WorkflowError is returned by every proposal operation that fails for a
// reason the caller can act on.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
}

func (e *WorkflowError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any WorkflowError of the same kind, so errors.Is(err, ErrConflict)
// works for errors built with a specific message.
func (e *WorkflowError) Is(target error) bool {
	other, ok := target.(*WorkflowError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrNotFound     = &WorkflowError{Kind: KindNotFound, Message: "proposal not found"}
	ErrForbidden    = &WorkflowError{Kind: KindForbidden, Message: "not permitted"}
	ErrInvalidState = &WorkflowError{Kind: KindInvalidState, Message: "invalid transition"}
	ErrValidation   = &WorkflowError{Kind: KindValidation, Message: "validation failed"}
	ErrConflict     = &WorkflowError{Kind: KindConflict, Message: "proposal was modified concurrently"}
)

func notFound(format string, args ...any) error {
	return &WorkflowError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &WorkflowError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...any) error {
	return &WorkflowError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return &WorkflowError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or "" when err is not a WorkflowError.
func KindOf(err error) ErrorKind {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ""
}
