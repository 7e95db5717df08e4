package jsonval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(members ...Member) Value { return ObjectValue(members...) }

func kv(key string, v Value) Member { return Member{Key: key, Value: v} }

func TestNormalize_PrimitiveIdentity(t *testing.T) {
	tests := []struct {
		name string
		in   Value
	}{
		{"null", NullValue()},
		{"string", StringValue("a")},
		{"empty string", StringValue("")},
		{"integer", IntValue(5)},
		{"float", FloatValue(1.5)},
		{"true", BoolValue(true)},
		{"false", BoolValue(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.in), "got %s, want %s", got, tt.in)
		})
	}
}

func TestNormalize_ArrayDropsAbsentElements(t *testing.T) {
	in := ArrayValue(IntValue(1), Undefined(), StringValue("x"))

	got, ok := Normalize(in)
	require.True(t, ok)
	assert.Equal(t, `[1,"x"]`, got.String())
}

func TestNormalize_NullIsNotDropped(t *testing.T) {
	in := obj(kv("a", NullValue()), kv("b", Undefined()))

	got, ok := Normalize(in)
	require.True(t, ok)
	assert.Equal(t, `{"a":null}`, got.String())
}

func TestNormalize_EmptyPreservation(t *testing.T) {
	t.Run("array of absent", func(t *testing.T) {
		got, ok := Normalize(ArrayValue(Undefined()))
		require.True(t, ok)
		assert.Equal(t, Array, got.Kind())
		assert.Equal(t, 0, got.Len())
		assert.Equal(t, `[]`, got.String())
	})

	t.Run("object of absent", func(t *testing.T) {
		got, ok := Normalize(obj(kv("a", Undefined())))
		require.True(t, ok)
		assert.Equal(t, Object, got.Kind())
		assert.Equal(t, `{}`, got.String())
	})

	t.Run("already empty", func(t *testing.T) {
		for _, in := range []Value{ArrayValue(), obj()} {
			got, ok := Normalize(in)
			require.True(t, ok)
			assert.True(t, got.Equal(in))
		}
	})
}

func TestNormalize_ObjectKeyDropKeepsOrder(t *testing.T) {
	in := obj(
		kv("z", IntValue(1)),
		kv("b", Undefined()),
		kv("c", StringValue("x")),
		kv("a", UnsupportedValue("func()")),
		kv("m", BoolValue(false)),
	)

	got, ok := Normalize(in)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "c", "m"}, got.Keys())
	assert.Equal(t, `{"z":1,"c":"x","m":false}`, got.String())
}

func TestNormalize_NestedRecursion(t *testing.T) {
	in := obj(kv("a", ArrayValue(
		IntValue(1),
		obj(kv("b", Undefined()), kv("c", IntValue(2))),
	)))

	got, ok := Normalize(in)
	require.True(t, ok)
	assert.Equal(t, `{"a":[1,{"c":2}]}`, got.String())
}

func TestNormalize_TopLevelUnsupportedIsAbsent(t *testing.T) {
	for _, in := range []Value{Undefined(), UnsupportedValue("func()"), FloatValue(math.NaN())} {
		_, ok := Normalize(in)
		assert.False(t, ok, "expected %s to normalize to absent", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []Value{
		MustParse(`{"a":[1,{"b":null,"c":[[],{}]}],"d":"x"}`),
		obj(kv("a", Undefined()), kv("b", ArrayValue(Undefined(), IntValue(3)))),
		ArrayValue(obj(kv("x", UnsupportedValue("chan int"))), NullValue()),
	}

	for _, in := range inputs {
		once, ok := Normalize(in)
		require.True(t, ok)
		twice, ok := Normalize(once)
		require.True(t, ok)
		assert.True(t, once.Equal(twice), "normalize not idempotent for %s", in)
	}
}

func TestNormalize_Closure(t *testing.T) {
	inputs := []any{
		map[string]any{"f": func() {}, "c": make(chan int), "n": nil, "list": []any{1, complex(1, 2), "s"}},
		[]any{math.Inf(1), map[int]string{1: "x"}, struct{}{}, true},
		map[string]any{"deep": map[string]any{"deeper": []any{map[string]any{"gone": func() {}}}}},
	}

	for _, in := range inputs {
		got, ok := NormalizeAny(in)
		require.True(t, ok)
		assert.True(t, got.IsNormalized(), "output %s still carries unsupported values", got)
		_, err := got.MarshalJSON()
		assert.NoError(t, err)
	}
}

func TestNormalizeAny_GoValues(t *testing.T) {
	got, ok := NormalizeAny(map[string]any{
		"b":    []any{1, func() {}, "x"},
		"a":    nil,
		"skip": func() {},
	})
	require.True(t, ok)
	assert.Equal(t, `{"a":null,"b":[1,"x"]}`, got.String())

	_, ok = NormalizeAny(func() {})
	assert.False(t, ok)
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	in := ArrayValue(IntValue(1), IntValue(2))
	got, ok := Normalize(in)
	require.True(t, ok)

	got.elems[0] = StringValue("changed")
	assert.Equal(t, `[1,2]`, in.String())
}
