// Package literal implements the closed value grammar used by metadata files
// and inline document metadata.
//
// A literal is one of:
//
//	"double quoted"  with backslash escapes (\n \t \r \0 \e \\ \" \uXXXX)
//	'single quoted'  where only \\ and \' are escapes
//	42, -3.5, 1e3    numbers
//	true, false      booleans
//	[a, b, ...]      ordered lists
//	{k => v, k: v}   ordered maps with scalar keys
//	:symbol, bare    bare tokens, read as strings
//
// Nothing outside the grammar is evaluated; it is reported as a *SyntaxError.
package literal

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a tagged literal value. The zero Value is invalid and is what
// lookups return for absent keys.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    *Map
}

func NewString(s string) Value  { return Value{kind: KindString, str: s} }
func NewNumber(f float64) Value { return Value{kind: KindNumber, num: f} }
func NewInt(i int) Value        { return Value{kind: KindNumber, num: float64(i)} }
func NewBool(b bool) Value      { return Value{kind: KindBool, b: b} }
func NewList(vs ...Value) Value { return Value{kind: KindList, list: append([]Value(nil), vs...)} }
func NewMapValue(m *Map) Value  { return Value{kind: KindMap, m: m} }
func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsValid() bool   { return v.kind != KindInvalid }
func (v Value) IsScalar() bool  { return v.kind == KindString || v.kind == KindNumber || v.kind == KindBool }

// Str returns the string payload when v is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Number returns the numeric payload when v is a number.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Bool returns the boolean payload when v is a bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// List returns a copy of the elements when v is a list.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value(nil), v.list...), true
}

// Map returns the map payload when v is a map.
func (v Value) Map() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Strings flattens a string or a list of scalars into a slice of strings.
// Renderer lists are written either way in metadata files.
func (v Value) Strings() ([]string, bool) {
	switch v.kind {
	case KindString:
		return []string{v.str}, true
	case KindList:
		out := make([]string, 0, len(v.list))
		for _, item := range v.list {
			if !item.IsScalar() {
				return nil, false
			}
			out = append(out, item.String())
		}
		return out, true
	default:
		return nil, false
	}
}

// String renders the value for display. Strings are returned raw; lists and
// maps use the literal syntax.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList, KindMap:
		return v.Literal()
	default:
		return ""
	}
}

// Literal renders the value in the grammar accepted by Parse.
func (v Value) Literal() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, item := range v.list {
			parts = append(parts, item.Literal())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.m.Len())
		v.m.Each(func(key string, val Value) {
			parts = append(parts, strconv.Quote(key)+" => "+val.Literal())
		})
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.String()
	}
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	default:
		return true
	}
}

// Map is an insertion-ordered string-keyed map of values. Setting an
// existing key replaces its value in place.
type Map struct {
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(key string, v Value)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for i, k := range m.keys {
		if o.keys[i] != k || !m.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}
