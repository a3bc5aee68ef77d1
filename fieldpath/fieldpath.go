// Package fieldpath looks values up inside decoded JSON objects using dotted
// paths such as "file.md5".
package fieldpath

import "strings"

// State tells apart a missing key, a key holding JSON null, and a key holding
// anything else.
type State uint8

const (
	Absent State = iota
	Null
	Present
)

func (s State) String() string {
	switch s {
	case Null:
		return "null"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Value is the outcome of a lookup.
type Value struct {
	State State
	Raw   any
}

func (v Value) IsAbsent() bool  { return v.State == Absent }
func (v Value) IsNull() bool    { return v.State == Null }
func (v Value) IsPresent() bool { return v.State == Present }

// Lookup resolves path against obj. A dotted path is split at its first dot
// and the remainder is resolved against the parent value, which must itself
// be an object. Any other shape yields Absent.
func Lookup(obj map[string]any, path string) Value {
	for {
		parent, rest, nested := strings.Cut(path, ".")
		if !nested {
			return lookupKey(obj, path)
		}
		child, ok := obj[parent].(map[string]any)
		if !ok {
			return Value{}
		}
		obj, path = child, rest
	}
}

func lookupKey(obj map[string]any, key string) Value {
	raw, ok := obj[key]
	switch {
	case !ok:
		return Value{}
	case raw == nil:
		return Value{State: Null}
	default:
		return Value{State: Present, Raw: raw}
	}
}
