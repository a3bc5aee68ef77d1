package fieldpath

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(doc), &obj); err != nil {
		t.Fatalf("decode %s: %v", doc, err)
	}
	return obj
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		path  string
		state State
		raw   any
	}{
		{"flat key", `{"id":5}`, "id", Present, 5.0},
		{"nested", `{"a":{"b":{"c":5}}}`, "a.b.c", Present, 5.0},
		{"nested null", `{"a":{"b":null}}`, "a.b", Null, nil},
		{"top level null", `{"id":null}`, "id", Null, nil},
		{"missing key", `{"id":1}`, "score", Absent, nil},
		{"missing child", `{"a":{"b":1}}`, "a.c", Absent, nil},
		{"parent not object", `{"a":[1,2]}`, "a.b", Absent, nil},
		{"parent is string", `{"a":"text"}`, "a.b", Absent, nil},
		{"parent is null", `{"a":null}`, "a.b", Absent, nil},
		{"string value", `{"file":{"md5":"abc"}}`, "file.md5", Present, "abc"},
		{"empty path", `{"":1}`, "", Present, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lookup(decode(t, tt.doc), tt.path)
			if got.State != tt.state {
				t.Fatalf("state = %v, want %v", got.State, tt.state)
			}
			if got.Raw != tt.raw {
				t.Errorf("raw = %#v, want %#v", got.Raw, tt.raw)
			}
		})
	}
}

func TestLookupDeep(t *testing.T) {
	obj := map[string]any{"v": 1}
	path := "v"
	for i := 0; i < 50; i++ {
		obj = map[string]any{"n": obj}
		path = "n." + path
	}
	if got := Lookup(obj, path); !got.IsPresent() || got.Raw != 1 {
		t.Errorf("deep lookup = %+v", got)
	}
}

func TestLookupIsAssociative(t *testing.T) {
	obj := decode(t, `{"a":{"b":{"c":5}}}`)

	whole := Lookup(obj, "a.b.c")
	inner := Lookup(obj, "a.b")
	if !inner.IsPresent() {
		t.Fatalf("a.b not found")
	}
	stepped := Lookup(inner.Raw.(map[string]any), "c")
	if whole != stepped {
		t.Errorf("a.b.c = %+v, stepwise = %+v", whole, stepped)
	}
}
