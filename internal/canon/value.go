// Package canon implements the CanonValue/CanonParams sum type and the
// canonical binary encoding + SHA-256 hash used by every content-addressing
// rule in the fingerprint engine.
package canon

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindU64
	KindF64
	KindStr
	KindArray
	KindObject
)

// Value is the CanonValue/CanonParams sum type: {Null, Bool, I64, U64, F64,
// Str, Array[V], Object} where Object is an ordered string→Value mapping.
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

// Object is an ordered string→Value mapping. Insertion order is preserved
// (not sorted) so that canonical builders which always insert fields in a
// fixed, declared order produce deterministic encodings without needing a
// second sort pass.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set inserts or updates a key, preserving the original insertion position
// on update.
func (o *Object) Set(key string, v Value) *Object {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
	return o
}

// Keys returns the ordered key list (read-only use expected).
func (o *Object) Keys() []string { return o.keys }

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }

// Null returns the Null variant.
func Null() Value { return Value{kind: KindNull} }

// Bool returns the Bool variant.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// I64 returns the signed-integer variant.
func I64(i int64) Value { return Value{kind: KindI64, i: i} }

// U64 returns the unsigned-integer variant.
func U64(u uint64) Value { return Value{kind: KindU64, u: u} }

// F64 returns the float variant.
func F64(f float64) Value { return Value{kind: KindF64, f: f} }

// Str returns the string variant. Callers normalize (trim/lowercase) before
// constructing — canon itself performs no normalization.
func Str(s string) Value { return Value{kind: KindStr, s: s} }

// Arr returns the array variant.
func Arr(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// ArrSlice returns the array variant from an existing slice without copying.
func ArrSlice(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Obj returns the object variant.
func Obj(o *Object) Value { return Value{kind: KindObject, obj: o} }

// StrArr builds an array of strings, a common case for upstream-fingerprint
// lists and tag lists.
func StrArr(items []string) Value {
	vs := make([]Value, len(items))
	for i, s := range items {
		vs[i] = Str(s)
	}
	return ArrSlice(vs)
}

// Encodable is implemented by any type with a canonical representation.
type Encodable interface {
	CanonValue() Value
}

// Func adapts a plain func into an Encodable.
type Func func() Value

// CanonValue implements Encodable.
func (f Func) CanonValue() Value { return f() }
