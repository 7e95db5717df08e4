// Package jsonval models decoded JSON as an explicit tagged variant and
// normalizes arbitrary values down to the JSON-safe subset.
//
// Objects keep insertion order, which Go maps cannot do, so API responses can be
// re-emitted in the order the server sent them.
package jsonval

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// Unsupported is the zero Kind. It stands for an absent/undefined marker or
	// any runtime value with no JSON representation.
	Unsupported Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unsupported"
	}
}

// Member is one key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Value is a RawValue: one of null, bool, number, string, array, object, or
// unsupported. The zero Value is Unsupported ("undefined").
type Value struct {
	kind    Kind
	boolean bool
	num     json.Number
	str     string // string payload, or description for Unsupported
	elems   []Value
	members []Member
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{kind: Null} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, boolean: b} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue wraps a JSON number literal. An empty or malformed literal
// yields Unsupported.
func NumberValue(n json.Number) Value {
	if !validNumber(string(n)) {
		return UnsupportedValue("malformed number " + strconv.Quote(string(n)))
	}
	return Value{kind: Number, num: n}
}

func validNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// IntValue wraps an integer.
func IntValue(i int64) Value {
	return Value{kind: Number, num: json.Number(strconv.FormatInt(i, 10))}
}

// FloatValue wraps a float. NaN and infinities have no JSON form and become
// Unsupported.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return UnsupportedValue(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return Value{kind: Number, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// ArrayValue builds an ordered sequence. A nil argument list yields an empty
// array, not null.
func ArrayValue(elems ...Value) Value {
	out := make([]Value, len(elems))
	copy(out, elems)
	return Value{kind: Array, elems: out}
}

// ObjectValue builds a mapping from members in order. Duplicate keys keep the
// first position and the last value.
func ObjectValue(members ...Member) Value {
	b := newObjectBuilder(len(members))
	for _, m := range members {
		b.set(m.Key, m.Value)
	}
	return b.value()
}

// UnsupportedValue returns an absent marker carrying a short description of
// what it replaced.
func UnsupportedValue(desc string) Value { return Value{kind: Unsupported, str: desc} }

// Undefined returns the bare absent marker.
func Undefined() Value { return Value{} }

// objectBuilder collects members in first-seen order. A repeated key keeps
// its first position and takes the latest value.
type objectBuilder struct {
	members []Member
	index   map[string]int
}

func newObjectBuilder(size int) *objectBuilder {
	return &objectBuilder{members: make([]Member, 0, size), index: make(map[string]int, size)}
}

func (b *objectBuilder) set(key string, val Value) {
	if i, ok := b.index[key]; ok {
		b.members[i].Value = val
		return
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: val})
}

func (b *objectBuilder) value() Value {
	return Value{kind: Object, members: b.members}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Truth returns the boolean payload.
func (v Value) Truth() bool { return v.boolean }

// Str returns the string payload. It is empty for non-strings.
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.str
}

// Num returns the number literal. It is empty for non-numbers.
func (v Value) Num() json.Number { return v.num }

// Elems returns the array elements. The slice must not be modified.
func (v Value) Elems() []Value { return v.elems }

// Members returns object members in order. The slice must not be modified.
func (v Value) Members() []Member { return v.members }

// Len returns the element or member count.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.elems)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Get looks up key in an object. The second result is false when v is not an
// object or the key is missing.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Keys returns object keys in order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Equal reports deep structural equality. Object key order is significant and
// numbers compare by numeric value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Unsupported, Null:
		return true
	case Bool:
		return v.boolean == o.boolean
	case String:
		return v.str == o.str
	case Number:
		if v.num == o.num {
			return true
		}
		a, aerr := v.num.Float64()
		b, berr := o.num.Float64()
		return aerr == nil && berr == nil && a == b
	case Array:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Key != o.members[i].Key || !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// IsNormalized reports whether v is a NormalizedValue: no Unsupported marker
// appears anywhere inside it.
func (v Value) IsNormalized() bool {
	switch v.kind {
	case Null, Bool, Number, String:
		return true
	case Array:
		for _, e := range v.elems {
			if !e.IsNormalized() {
				return false
			}
		}
		return true
	case Object:
		for _, m := range v.members {
			if !m.Value.IsNormalized() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v as compact JSON, or a placeholder for Unsupported values.
func (v Value) String() string {
	if v.kind == Unsupported {
		if v.str == "" {
			return "<undefined>"
		}
		return fmt.Sprintf("<unsupported %s>", v.str)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return string(data)
}
