// Package value implements the runtime value model the evaluator
// operates on: a small tagged variant (null, bool, integer, float,
// string, ordered array, string-keyed ordered object) instead of a
// pointer to an arbitrary boxed value.
package value

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single runtime value. The zero Value is null. Values are
// shared by reference and are never mutated after construction.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	arr  []Value
	obj  *Object
}

// Object is an ordered string-keyed map: lookups are exact-match, and
// Keys returns entries in insertion order unless SortKeys reorders them.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty, ready-to-use Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set inserts or overwrites key. Overwriting an existing key keeps its
// original position in iteration order.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value stored under key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// SortKeys reorders iteration to ascending key order. Used when building
// an object from an unordered source (cmd/gotl's decoded JSON maps) to
// give a deterministic order; object literals built incrementally keep
// insertion order unless this is called.
func (o *Object) SortKeys() {
	sort.Strings(o.keys)
}

// Null is the null/nil value.
var Null = Value{kind: KindNull}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a signed integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Uint wraps an unsigned integer.
func Uint(u uint64) Value { return Value{kind: KindUint, u: u} }

// Float wraps a floating-point number.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps an ordered list of values.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// FromObject wraps an *Object.
func FromObject(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload; only meaningful when Kind() == KindBool.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the signed integer payload.
func (v Value) AsInt() int64 { return v.i }

// AsUint returns the unsigned integer payload.
func (v Value) AsUint() uint64 { return v.u }

// AsFloat returns the float payload.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the string payload.
func (v Value) AsString() string { return v.s }

// AsArray returns the array payload.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns the object payload, or nil if v is not an object.
func (v Value) AsObject() *Object { return v.obj }

// IsNumber reports whether v holds one of the numeric kinds.
func (v Value) IsNumber() bool {
	switch v.kind {
	case KindInt, KindUint, KindFloat:
		return true
	default:
		return false
	}
}

// Float64 converts any numeric kind to float64. It panics if v is not
// numeric; callers must check IsNumber first.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindUint:
		return float64(v.u)
	case KindFloat:
		return v.f
	default:
		panic("value: Float64 of non-numeric value")
	}
}

// Field resolves name against v, per spec: objects support exact-match
// key lookup, everything else is an error.
func (v Value) Field(name string) (Value, error) {
	if v.kind != KindObject {
		return Value{}, fmt.Errorf("only basic fields are supported for %s", v.kind)
	}
	if val, ok := v.obj.Get(name); ok {
		return val, nil
	}
	return Value{}, fmt.Errorf("no field %s", name)
}

// Index resolves an array element by position, or an object field by
// key converted to a string. Used by the "index" built-in.
func (v Value) Index(key Value) (Value, error) {
	switch v.kind {
	case KindArray:
		if !key.IsNumber() {
			return Value{}, fmt.Errorf("index: array index must be a number")
		}
		i := int(key.Float64())
		if i < 0 || i >= len(v.arr) {
			return Value{}, fmt.Errorf("index out of range: %d", i)
		}
		return v.arr[i], nil
	case KindObject:
		return v.Field(key.AsString())
	default:
		return Value{}, fmt.Errorf("can't index item of type %s", v.kind)
	}
}

// Len implements the len built-in: defined for strings (byte length),
// arrays, and objects; undefined elsewhere.
func (v Value) Len() (int, error) {
	switch v.kind {
	case KindString:
		return len(v.s), nil
	case KindArray:
		return len(v.arr), nil
	case KindObject:
		return v.obj.Len(), nil
	default:
		return 0, fmt.Errorf("len of type %s", v.kind)
	}
}

// Truthy implements §4.4's truthiness rules.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindUint:
		return v.u != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) != 0
	case KindObject:
		return v.obj.Len() != 0
	default:
		return false
	}
}

// Equal implements the "eq" built-in's value-equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		if v.IsNumber() && other.IsNumber() {
			return v.Float64() == other.Float64()
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindUint:
		return v.u == other.u
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		for _, k := range v.obj.Keys() {
			a, _ := v.obj.Get(k)
			b, ok := other.obj.Get(k)
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders v against other for lt/le/gt/ge, following §4.5:
// numbers (float-first, then signed, then unsigned), booleans, strings,
// and arrays (by length). Cross-kind comparisons fail.
func (v Value) Compare(other Value) (int, error) {
	if v.IsNumber() && other.IsNumber() {
		a, b := v.Float64(), other.Float64()
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if v.kind != other.kind {
		return 0, fmt.Errorf("incompatible types for comparison: %s, %s", v.kind, other.kind)
	}
	switch v.kind {
	case KindBool:
		if v.b == other.b {
			return 0, nil
		}
		if !v.b {
			return -1, nil
		}
		return 1, nil
	case KindString:
		switch {
		case v.s < other.s:
			return -1, nil
		case v.s > other.s:
			return 1, nil
		default:
			return 0, nil
		}
	case KindArray:
		switch {
		case len(v.arr) < len(other.arr):
			return -1, nil
		case len(v.arr) > len(other.arr):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("type %s is not ordered", v.kind)
	}
}

// Format renders v the way the evaluator writes a pipeline's result:
// booleans and numbers in canonical decimal form, strings literally, null
// as "<no value>", arrays/objects in a canonical JSON-like form.
func (v Value) Format() (string, error) {
	switch v.kind {
	case KindNull:
		return "<no value>", nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindUint:
		return strconv.FormatUint(v.u, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64), nil
	case KindString:
		return v.s, nil
	case KindArray, KindObject:
		return v.formatJSON(), nil
	default:
		return "", fmt.Errorf("cannot format value of type %s", v.kind)
	}
}

func (v Value) formatJSON() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindArray:
		s := "["
		for i, e := range v.arr {
			if i > 0 {
				s += ","
			}
			s += e.formatJSON()
		}
		return s + "]"
	case KindObject:
		s := "{"
		for i, k := range v.obj.Keys() {
			if i > 0 {
				s += ","
			}
			val, _ := v.obj.Get(k)
			s += strconv.Quote(k) + ":" + val.formatJSON()
		}
		return s + "}"
	default:
		return "null"
	}
}
