package jsonval

// Normalize restricts v to the JSON-safe subset.
//
// Primitives and null are returned unchanged. Arrays and objects are rebuilt
// from their normalized children, dropping any child that normalizes to
// absent; a container whose children all vanish is kept as an empty container.
// Anything else is absent, reported by ok == false, and must be dropped by the
// caller. Null is a value here, never the absent signal.
//
// Recursion depth follows the input depth.
func Normalize(v Value) (out Value, ok bool) {
	switch v.kind {
	case Null, Bool, Number, String:
		return v, true
	case Array:
		elems := make([]Value, 0, len(v.elems))
		for _, e := range v.elems {
			if n, ok := Normalize(e); ok {
				elems = append(elems, n)
			}
		}
		return Value{kind: Array, elems: elems}, true
	case Object:
		members := make([]Member, 0, len(v.members))
		for _, m := range v.members {
			if n, ok := Normalize(m.Value); ok {
				members = append(members, Member{Key: m.Key, Value: n})
			}
		}
		return Value{kind: Object, members: members}, true
	default:
		return Value{}, false
	}
}

// NormalizeAny converts a runtime Go value with FromAny and normalizes it.
func NormalizeAny(x any) (Value, bool) {
	return Normalize(FromAny(x))
}
