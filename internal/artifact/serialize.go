package artifact

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strings"
)

// Unserializable is the sentinel returned when a value cannot be converted:
// cyclic structures, channels, funcs, and other non-data types. Serialize
// never panics and never returns a partially converted structure.
var Unserializable = map[string]any{"unserializable": true}

// maxDepth bounds the walk so pathological nesting degrades to the sentinel
// instead of exhausting the stack.
const maxDepth = 128

// Serialize converts an arbitrary value into a JSON-safe projection:
//
//  1. nil (typed or untyped) becomes nil.
//  2. Receipt-shaped values are summarized into the fixed nine-key mapping
//     with all arbitrary-precision fields as decimal strings.
//  3. Everything else is deep-walked: big integers become decimal strings,
//     nested nils become nil, sequences and string-keyed mappings recurse.
//  4. On any failure the sentinel {"unserializable": true} is returned.
//
// Serialize is a pure function, safe for concurrent use, and idempotent:
// re-serializing its own output yields an equal value.
func Serialize(v any) any {
	if Classify(v) == ReceiptValue {
		return projectReceipt(v)
	}
	out, ok := walk(v, make(map[uintptr]struct{}), 0)
	if !ok {
		return Unserializable
	}
	return out
}

// MarshalJSON serializes a value and encodes the result as JSON bytes.
// The sentinel path keeps this total as well.
func MarshalJSON(v any) []byte {
	data, err := json.Marshal(Serialize(v))
	if err != nil {
		// Serialize output is JSON-safe by construction, but keep the
		// contract total regardless.
		data, _ = json.Marshal(Unserializable)
	}
	return data
}

// walk converts one value, tracking visited containers to detect cycles.
func walk(v any, seen map[uintptr]struct{}, depth int) (any, bool) {
	if depth > maxDepth {
		return nil, false
	}
	switch x := v.(type) {
	case nil:
		return nil, true
	case bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x, true
	case json.Number:
		return x.String(), true
	case *big.Int:
		if x == nil {
			return nil, true
		}
		return x.String(), true
	case big.Int:
		return x.String(), true
	case *big.Float:
		if x == nil {
			return nil, true
		}
		return x.Text('g', -1), true
	case []any:
		return walkSlice(x, seen, depth)
	case map[string]any:
		return walkMap(x, seen, depth)
	}
	return walkReflect(reflect.ValueOf(v), seen, depth)
}

func walkSlice(s []any, seen map[uintptr]struct{}, depth int) (any, bool) {
	ptr := reflect.ValueOf(s).Pointer()
	if _, cyclic := seen[ptr]; cyclic {
		return nil, false
	}
	seen[ptr] = struct{}{}
	defer delete(seen, ptr)

	out := make([]any, len(s))
	for i, e := range s {
		converted, ok := walk(e, seen, depth+1)
		if !ok {
			return nil, false
		}
		out[i] = converted
	}
	return out, true
}

func walkMap(m map[string]any, seen map[uintptr]struct{}, depth int) (any, bool) {
	ptr := reflect.ValueOf(m).Pointer()
	if _, cyclic := seen[ptr]; cyclic {
		return nil, false
	}
	seen[ptr] = struct{}{}
	defer delete(seen, ptr)

	out := make(map[string]any, len(m))
	for k, e := range m {
		converted, ok := walk(e, seen, depth+1)
		if !ok {
			return nil, false
		}
		out[k] = converted
	}
	return out, true
}

// walkReflect handles values outside the fast paths: typed slices, typed
// maps with string keys, structs, and pointers. Channels, funcs, and
// non-string-keyed maps are unserializable.
func walkReflect(rv reflect.Value, seen map[uintptr]struct{}, depth int) (any, bool) {
	if !rv.IsValid() {
		return nil, true
	}
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		ptr := rv.Pointer()
		if _, cyclic := seen[ptr]; cyclic {
			return nil, false
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)
		return walk(rv.Elem().Interface(), seen, depth)
	case reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return walk(rv.Elem().Interface(), seen, depth)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return nil, true
			}
			ptr := rv.Pointer()
			if _, cyclic := seen[ptr]; cyclic {
				return nil, false
			}
			seen[ptr] = struct{}{}
			defer delete(seen, ptr)
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			converted, ok := walk(rv.Index(i).Interface(), seen, depth+1)
			if !ok {
				return nil, false
			}
			out[i] = converted
		}
		return out, true
	case reflect.Map:
		if rv.IsNil() {
			return nil, true
		}
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		ptr := rv.Pointer()
		if _, cyclic := seen[ptr]; cyclic {
			return nil, false
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			converted, ok := walk(iter.Value().Interface(), seen, depth+1)
			if !ok {
				return nil, false
			}
			out[iter.Key().String()] = converted
		}
		return out, true
	case reflect.Struct:
		// Struct fields are walked directly rather than round-tripped
		// through encoding/json, which would decode big integers into
		// float64 and lose precision.
		rt := rv.Type()
		out := make(map[string]any, rt.NumField())
		for i := range rt.NumField() {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			converted, ok := walk(rv.Field(i).Interface(), seen, depth+1)
			if !ok {
				return nil, false
			}
			out[name] = converted
		}
		return out, true
	}
	return nil, false
}
