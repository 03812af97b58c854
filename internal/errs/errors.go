// Package errs provides the unified error type used across all of sqlgate.
//
// Every subsystem (database adapters, introspection, the published endpoint
// resolver, the generation boundary, …) wraps its native errors into
// *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In an adapter, wrap native errors:
//	return errs.Wrap(errs.ErrKindConnectionFailed, "could not open session", pgErr)
//
//	// In a handler, check the error kind:
//	if errs.IsPermissionDenied(err) {
//	    http.Error(w, "API is not published", http.StatusForbidden)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (Postgres, MySQL, SQLite, MinIO, the generator, …) map their
// native errors to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown             ErrKind = iota
	ErrKindNotFound                    // missing connection, endpoint, object
	ErrKindConnectionFailed            // could not open a session to the backend
	ErrKindTimeout                     // context deadline / cancellation
	ErrKindQueryFailed                 // query ran but errored
	ErrKindInvalidInput                // bad arguments from the caller
	ErrKindPermissionDenied            // endpoint not published, access denied
	ErrKindIntrospectionFailed         // catalog query failed mid-scan
	ErrKindGenerationFailed            // generator output is not the expected artifact
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindIntrospectionFailed:
		return "introspection_failed"
	case ErrKindGenerationFailed:
		return "generation_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all sqlgate subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Detail returns the human-readable text exposed to API callers: the message
// followed by the cause, without kind prefixes at any depth. A nested *Error
// repeating the same message is collapsed.
func (e *Error) Detail() string {
	if e.Cause == nil {
		return e.Message
	}
	cause := e.Cause.Error()
	if inner, ok := e.Cause.(*Error); ok {
		cause = inner.Detail()
	}
	if cause == e.Message {
		return e.Message
	}
	return e.Message + ": " + cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (unknown connection, unknown endpoint path, missing object, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a query execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsIntrospectionFailed reports whether err came from a failed catalog scan.
func IsIntrospectionFailed(err error) bool {
	return KindOf(err) == ErrKindIntrospectionFailed
}

// IsGenerationFailed reports whether err came from an unusable generator response.
func IsGenerationFailed(err error) bool {
	return KindOf(err) == ErrKindGenerationFailed
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// Detail returns the caller-facing text for any error: (*Error).Detail for
// sqlgate errors, err.Error() otherwise.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Detail()
	}
	return err.Error()
}
