package jsonval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse for malformed input.
var ErrInvalidJSON = errors.New("invalid JSON")

// Parse decodes a JSON document into a Value, preserving object key order.
func Parse(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(fmt.Sprintf("jsonval: MustParse(%q): %v", s, err))
	}
	return v
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return NullValue()
	case gjson.False:
		return BoolValue(false)
	case gjson.True:
		return BoolValue(true)
	case gjson.Number:
		return NumberValue(json.Number(strings.TrimSpace(r.Raw)))
	case gjson.String:
		return StringValue(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			elems := make([]Value, 0)
			r.ForEach(func(_, item gjson.Result) bool {
				elems = append(elems, fromResult(item))
				return true
			})
			return Value{kind: Array, elems: elems}
		}
		obj := newObjectBuilder(0)
		r.ForEach(func(key, item gjson.Result) bool {
			obj.set(key.Str, fromResult(item))
			return true
		})
		return obj.value()
	}
	return Undefined()
}

// MarshalJSON writes v as compact JSON in member order. Unsupported values
// cannot be encoded; normalize first.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.boolean {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		buf.WriteString(string(v.num))
	case String:
		return encodeString(buf, v.str)
	case Array:
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return fmt.Errorf("key %q: %w", m.Key, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode %s as JSON", v.String())
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler using Parse.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

var (
	valueType      = reflect.TypeOf(Value{})
	numberType     = reflect.TypeOf(json.Number(""))
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
)

// FromAny converts a runtime Go value into a Value.
//
// Values produced by encoding/json map one to one. Slices and arrays become
// arrays and string-keyed maps become objects with keys sorted, since Go maps
// carry no insertion order. Pointers are followed and a nil pointer is null.
// Functions, channels, complex numbers, structs and other values with no
// JSON-safe meaning become Unsupported.
func FromAny(x any) Value {
	if x == nil {
		return NullValue()
	}
	switch t := x.(type) {
	case Value:
		return t
	case json.Number:
		return NumberValue(t)
	case json.RawMessage:
		v, err := Parse(t)
		if err != nil {
			return UnsupportedValue("invalid raw JSON")
		}
		return v
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) Value {
	if !rv.IsValid() {
		return NullValue()
	}
	switch rv.Type() {
	case valueType:
		return rv.Interface().(Value)
	case numberType:
		return NumberValue(json.Number(rv.String()))
	case rawMessageType:
		return FromAny(rv.Interface())
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return NullValue()
		}
		return fromReflect(rv.Elem())
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.String:
		return StringValue(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NumberValue(json.Number(fmt.Sprintf("%d", rv.Uint())))
	case reflect.Float32, reflect.Float64:
		return FloatValue(rv.Float())
	case reflect.Slice:
		if rv.IsNil() {
			return ArrayValue()
		}
		fallthrough
	case reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			elems[i] = fromReflect(rv.Index(i))
		}
		return Value{kind: Array, elems: elems}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return UnsupportedValue(rv.Type().String())
		}
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		byKey := make(map[string]reflect.Value, rv.Len())
		for iter.Next() {
			k := iter.Key().String()
			keys = append(keys, k)
			byKey[k] = iter.Value()
		}
		sort.Strings(keys)
		members := make([]Member, len(keys))
		for i, k := range keys {
			members[i] = Member{Key: k, Value: fromReflect(byKey[k])}
		}
		return Value{kind: Object, members: members}
	default:
		return UnsupportedValue(rv.Type().String())
	}
}
