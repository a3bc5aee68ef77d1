package booru

import (
	"errors"
	"fmt"
	"net/http"

	"bugmaschine/booru-mux/mapping"
)

// Kind classifies why an operation failed.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnsupported: the source cannot perform the operation at all.
	KindUnsupported
	// KindTransport: the request could not be completed.
	KindTransport
	// KindMalformedEnvelope: the response is not the array or object the
	// schema declares.
	KindMalformedEnvelope
	KindMissingField
	KindTypeMismatch
	KindUnknownAlias
	// KindServer: the source answered with an error payload.
	KindServer
	KindInvalidSchema
	// KindScript: a scripted source's function failed or returned the wrong
	// type.
	KindScript
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindUnsupported:       "unsupported operation",
	KindTransport:         "transport failure",
	KindMalformedEnvelope: "malformed envelope",
	KindMissingField:      "missing field",
	KindTypeMismatch:      "type mismatch",
	KindUnknownAlias:      "unknown alias",
	KindServer:            "server error",
	KindInvalidSchema:     "invalid schema",
	KindScript:            "script failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrUnsupported is wrapped by every KindUnsupported error.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrScript is wrapped by errors raised inside scripted sources.
	ErrScript = errors.New("script failure")
)

// Error is returned by every Source operation.
type Error struct {
	Source string
	Op     string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response without a recognisable error payload.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// KindOf reports the kind of err, or KindUnknown for errors that did not come
// from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Wrap classifies err and attaches the source and operation. An err that is
// already an *Error is returned unchanged.
func Wrap(source, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Source: source, Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrScript):
		return KindScript
	case errors.Is(err, mapping.ErrServerReported):
		return KindServer
	case errors.Is(err, mapping.ErrMalformedEnvelope):
		return KindMalformedEnvelope
	case errors.Is(err, mapping.ErrMissingField):
		return KindMissingField
	case errors.Is(err, mapping.ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, mapping.ErrUnknownAlias):
		return KindUnknownAlias
	case errors.Is(err, mapping.ErrInvalidSchema):
		return KindInvalidSchema
	}
	// network failures, cancelled contexts and unexpected status codes
	return KindTransport
}

// Unsupported builds a KindUnsupported error for op.
func Unsupported(source, op, reason string) error {
	return &Error{Source: source, Op: op, Kind: KindUnsupported, Err: fmt.Errorf("%w: %s", ErrUnsupported, reason)}
}
