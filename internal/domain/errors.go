package domain

import "errors"

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuth          ErrorKind = "unauthenticated"
	KindNotFound      ErrorKind = "not_found"
	KindConfiguration ErrorKind = "configuration"
	KindUpstream      ErrorKind = "upstream"
)

// Error is the typed failure surfaced at the mutation boundary. Message is
// safe to show to the caller; Err carries the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches bare sentinels by kind, so errors.Is(err, ErrNotFound) holds for
// any not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindAuth}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrNotConfigured   = &Error{Kind: KindConfiguration}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

func ValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func AuthError(message string) error {
	return &Error{Kind: KindAuth, Message: message}
}

func NotFoundError(resource string) error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func ConfigurationError(message string) error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func UpstreamError(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StoreError reports a persistence failure as an upstream error. Errors that
// already carry a kind pass through unchanged.
func StoreError(message string, err error) error {
	if KindOf(err) != "" {
		return err
	}
	return UpstreamError(message, err)
}
