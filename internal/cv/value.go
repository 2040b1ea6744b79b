package cv

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind enumerates the shapes an untrusted JSON value can take.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an untrusted decoded JSON value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value
}

// Decode parses data as JSON.
func Decode(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, err
	}
	return FromJSON(raw), nil
}

// FromJSON lifts a value produced by encoding/json into a Value.
// Go types encoding/json never produces are treated as null.
func FromJSON(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return String(t)
	case bool:
		return Value{kind: KindBool, b: t}
	case float64:
		return Value{kind: KindNumber, num: t}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}
		}
		return Value{kind: KindNumber, num: f}
	case []any:
		arr := make([]Value, 0, len(t))
		for _, item := range t {
			arr = append(arr, FromJSON(item))
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = FromJSON(item)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return Value{}
	}
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Lookup returns the first of names present on an object value. Exact key
// matches win over case-insensitive ones.
func (v Value) Lookup(names ...string) (Value, string, bool) {
	if v.kind != KindObject {
		return Value{}, "", false
	}

	for _, name := range names {
		if item, ok := v.obj[name]; ok {
			return item, name, true
		}
	}

	keys := v.Keys()
	for _, name := range names {
		for _, key := range keys {
			if strings.EqualFold(key, name) {
				return v.obj[key], key, true
			}
		}
	}

	return Value{}, "", false
}

// Keys returns object keys in sorted order, or nil for non-objects.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts the value back into the encoding/json representation.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindArray:
		out := make([]any, 0, len(v.arr))
		for _, item := range v.arr {
			out = append(out, item.Interface())
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}
