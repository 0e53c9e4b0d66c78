package usecase

import "fmt"

// ErrorKind tags which stage of the forwarding pipeline failed.
type ErrorKind string

const (
	ErrorParse     ErrorKind = "PARSE_ERROR"
	ErrorUpstream  ErrorKind = "UPSTREAM_ERROR"
	ErrorTransport ErrorKind = "TRANSPORT_ERROR"
)

type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// ParseFailure builds the error returned for an unusable inbound body.
func ParseFailure(reason string, err error) *Error {
	return newError(ErrorParse, reason, err)
}
