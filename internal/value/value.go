// Package value models arbitrary JSON-shaped response data as a tagged
// variant so the path resolver and expression evaluator can pattern-match
// exhaustively instead of juggling dynamically-typed containers.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable JSON-shaped datum. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Number(n float64) Value     { return Value{kind: KindNumber, n: n} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func List(items []Value) Value   { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue reports the stored boolean; ok is false for other kinds.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// NumberValue reports the stored number; ok is false for other kinds.
func (v Value) NumberValue() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// StringValue reports the stored string; ok is false for other kinds.
func (v Value) StringValue() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// ListValue reports the stored list; ok is false for other kinds.
func (v Value) ListValue() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// MapValue reports the stored map; ok is false for other kinds.
func (v Value) MapValue() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Float coerces the value to a float64. Numbers convert directly; strings
// convert when they parse as a decimal number. Everything else fails.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal reports structural equality between two values. Lists compare
// element-wise in order; maps compare key sets and per-key values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for key, item := range v.m {
			otherItem, ok := other.m[key]
			if !ok || !item.Equal(otherItem) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Text renders the canonical string form used when an extracted value is
// stored into the environment: numbers use their shortest decimal text,
// booleans render true/false, null renders "null", strings render verbatim,
// and lists/maps render as compact JSON with sorted map keys.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		var sb strings.Builder
		v.writeJSON(&sb)
		return sb.String()
	}
}

func (v Value) writeJSON(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.n, 'f', -1, 64))
	case KindString:
		data, _ := json.Marshal(v.s)
		sb.Write(data)
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.writeJSON(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for key := range v.m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			data, _ := json.Marshal(key)
			sb.Write(data)
			sb.WriteByte(':')
			item := v.m[key]
			item.writeJSON(sb)
		}
		sb.WriteByte('}')
	}
}

// FromAny converts a decoded JSON container (map[string]any / []any /
// primitives, as produced by encoding/json) into a Value.
func FromAny(data any) Value {
	switch v := data.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return String(v.String())
		}
		return Number(f)
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case string:
		return String(v)
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = FromAny(item)
		}
		return List(items)
	case map[string]any:
		m := make(map[string]Value, len(v))
		for key, item := range v {
			m[key] = FromAny(item)
		}
		return Map(m)
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

// FromJSON parses raw JSON text into a Value.
func FromJSON(data []byte) (Value, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Null(), err
	}
	return FromAny(decoded), nil
}

// StringMap builds a map Value whose entries are all strings.
func StringMap(entries map[string]string) Value {
	m := make(map[string]Value, len(entries))
	for key, item := range entries {
		m[key] = String(item)
	}
	return Map(m)
}
