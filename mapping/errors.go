package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrMissingField      = errors.New("missing field")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrUnknownAlias      = errors.New("unknown rating alias")
	ErrServerReported    = errors.New("server reported an error")
	ErrInvalidSchema     = errors.New("invalid schema")
)

// FieldError reports a field path that was missing or held the wrong kind
// of JSON value.
type FieldError struct {
	Path     string
	Expected string
	// Got is the JSON type found, empty when the field was missing.
	Got   string
	Value any
}

func (e *FieldError) Missing() bool {
	return e.Got == ""
}

func (e *FieldError) Error() string {
	path := e.Path
	if path == "" {
		path = "record"
	}
	if e.Missing() {
		return fmt.Sprintf("missing field %q (expected %s)", path, e.Expected)
	}
	if e.Value == nil {
		return fmt.Sprintf("field %q: expected %s, got %s", path, e.Expected, e.Got)
	}
	return fmt.Sprintf("field %q: expected %s, got %s %s", path, e.Expected, e.Got, literal(e.Value))
}

func (e *FieldError) Is(target error) bool {
	if e.Missing() {
		return target == ErrMissingField
	}
	return target == ErrTypeMismatch
}

// AliasError is returned for a rating string the source's alias table does
// not know.
type AliasError struct {
	Path  string
	Alias string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("field %q: unknown rating alias %q", e.Path, e.Alias)
}

func (e *AliasError) Is(target error) bool {
	return target == ErrUnknownAlias
}

// EnvelopeError is returned when the response does not have the array or
// object-with-key shape the schema declares.
type EnvelopeError struct {
	// Key is the expected result key, empty for a bare array.
	Key    string
	Got    string
	Detail string
}

func (e *EnvelopeError) Error() string {
	var msg string
	if e.Key == "" {
		msg = fmt.Sprintf("malformed envelope: expected a JSON array, got %s", e.Got)
	} else {
		msg = fmt.Sprintf("malformed envelope: expected an object with an array under %q, got %s", e.Key, e.Got)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *EnvelopeError) Is(target error) bool {
	return target == ErrMalformedEnvelope
}

// ServerError carries an error payload the source sent in place of results.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("server reported an error (status %d): %s", e.Status, e.Message)
	}
	return "server reported an error: " + e.Message
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServerReported
}

const maxLiteral = 64

func literal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	if len(data) > maxLiteral {
		return string(data[:maxLiteral]) + "..."
	}
	return string(data)
}

// jsonType names the JSON type of a decoded value.
func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32, uint, uint64, uint32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
