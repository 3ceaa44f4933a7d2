package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the service boundary.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "InvalidInput"
	KindFetchFailed     ErrorKind = "FetchFailed"
	KindDataUnavailable ErrorKind = "DataUnavailable"
)

// Error is the structured error returned by the service and its providers.
type Error struct {
	Kind    ErrorKind
	Message string
	// UpstreamStatus is the provider's HTTP status, 0 when none was received.
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInputf reports a request rejected before any network call.
func InvalidInputf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// DataUnavailablef reports a successful upstream response without temperature data.
func DataUnavailablef(format string, args ...any) *Error {
	return &Error{Kind: KindDataUnavailable, Message: fmt.Sprintf(format, args...)}
}

// FetchFailed wraps a transport or provider failure.
func FetchFailed(status int, err error, format string, args ...any) *Error {
	return &Error{
		Kind:           KindFetchFailed,
		Message:        fmt.Sprintf(format, args...),
		UpstreamStatus: status,
		Err:            err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
