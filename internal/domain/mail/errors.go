package mail

import (
	"errors"
	"fmt"
)

// Kind classifies errors surfaced to callers of the bulk-send pipeline.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindTransport             Kind = "transport"
	KindTransportConstruction Kind = "transport_construction"
	KindStorage               Kind = "storage"
	KindUnauthorized          Kind = "unauthorized"
)

// Error is the single error shape returned across the pipeline boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports caller-fixable input problems.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// TransportConstructionError reports a transport that could not be built.
func TransportConstructionError(err error) *Error {
	return &Error{Kind: KindTransportConstruction, Message: "mail transport unavailable", Err: err}
}

// StorageError reports a record that could not be persisted after delivery.
func StorageError(err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Message: "emails were dispatched but the send record could not be saved",
		Err:     err,
	}
}

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
