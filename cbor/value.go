package cbor

import (
	"math"
	"sort"
)

// Value is an owned, decoded SACP-CBOR/1 data item. Unlike ValueRef, a
// Value does not borrow from the original bytes: decoding text and bytes
// copies them, so a Value outlives the buffer it was decoded from.
//
// Exactly one of the accessor pairs below is meaningful for a given Value;
// which one is determined by Kind.
type Value struct {
	kind Kind

	boolVal  bool
	floatVal uint64 // raw bits, already canonical

	integer CborInteger
	text    string
	bytes   []byte
	array   []Value
	object  Map
}

// CborInteger is an owned integer: either a safe-range int64 or a bignum
// outside the safe range (I7/I8).
type CborInteger struct {
	big    bool
	safe   int64
	bignum BigInt
}

// SafeInt builds an owned safe-range integer.
func SafeInt(v int64) CborInteger { return CborInteger{safe: v} }

// BigInt is an owned tag 2/3 bignum: a sign flag and a canonical big-endian
// magnitude.
type BigInt struct {
	negative  bool
	magnitude []byte
}

// NewBigInt validates and builds a BigInt. It returns ErrBignumNotCanonical
// if magnitude has a leading zero or is empty, and
// ErrBignumMustBeOutsideSafeRange if the represented value would fit in the
// safe integer range and so should be a plain integer instead.
func NewBigInt(negative bool, magnitude []byte) (BigInt, error) {
	if code := validateBignumBytes(negative, magnitude); code != 0 {
		return BigInt{}, encErr(code)
	}
	owned := make([]byte, len(magnitude))
	copy(owned, magnitude)
	return BigInt{negative: negative, magnitude: owned}, nil
}

// IsNegative reports whether this bignum is negative (tag 3).
func (b BigInt) IsNegative() bool { return b.negative }

// Magnitude returns the canonical big-endian magnitude bytes.
func (b BigInt) Magnitude() []byte { return b.magnitude }

// BigIntInteger wraps an already-validated BigInt as a CborInteger.
func BigIntInteger(b BigInt) CborInteger { return CborInteger{big: true, bignum: b} }

// IsSafe reports whether this integer is in the safe range.
func (i CborInteger) IsSafe() bool { return !i.big }

// IsBig reports whether this integer is a bignum.
func (i CborInteger) IsBig() bool { return i.big }

// AsInt64 returns the safe-range value and true, or (0, false) for a bignum.
func (i CborInteger) AsInt64() (int64, bool) {
	if i.big {
		return 0, false
	}
	return i.safe, true
}

// AsBigInt returns the bignum and true, or (BigInt{}, false) for a
// safe-range integer.
func (i CborInteger) AsBigInt() (BigInt, bool) {
	if !i.big {
		return BigInt{}, false
	}
	return i.bignum, true
}

// Map is an owned map whose entries are kept in canonical key order
// (shorter encoded key first, then lexicographic) — a construction
// invariant, not something checked on every read.
type Map struct {
	keys   []string
	values []Value
}

// NewMap builds a Map from entries, sorting them into canonical order. A Go
// map can't itself carry a duplicate key, so the only canonicality this
// needs to establish is ordering.
func NewMap(entries map[string]Value) (Map, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return cmpTextKeys(keys[a], keys[b]) < 0 })
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = entries[k]
	}
	return Map{keys: keys, values: values}, nil
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m.keys) }

// Get returns the value for key and true, or (Value{}, false) if absent.
func (m Map) Get(key string) (Value, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return cmpTextKeys(m.keys[i], key) >= 0 })
	if i < len(m.keys) && m.keys[i] == key {
		return m.values[i], true
	}
	return Value{}, false
}

// Keys returns the map's keys in canonical order. The returned slice must
// not be mutated.
func (m Map) Keys() []string { return m.keys }

// ValueAt returns the i'th entry's value in canonical key order.
func (m Map) ValueAt(i int) Value { return m.values[i] }

// NullValue returns an owned CBOR null.
func NullValue() Value { return Value{kind: KindNull} }

// BoolValue returns an owned CBOR boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// IntValue returns an owned safe-range integer value.
func IntValue(v int64) Value { return Value{kind: KindInteger, integer: SafeInt(v)} }

// BignumValue returns an owned bignum integer value.
func BignumValue(b BigInt) Value { return Value{kind: KindInteger, integer: BigIntInteger(b)} }

// FloatValue validates f per I9 (rejecting negative zero, canonicalizing
// NaN) and returns an owned float value.
func FloatValue(f float64) (Value, error) {
	bits := math.Float64bits(f)
	if math.IsNaN(f) {
		bits = canonicalNaNBits
	}
	if code := validateFloatBits(bits); code != 0 {
		return Value{}, encErr(code)
	}
	return Value{kind: KindFloat, floatVal: bits}, nil
}

// TextValue returns an owned text value.
func TextValue(s string) Value { return Value{kind: KindText, text: s} }

// BytesValue returns an owned byte-string value.
func BytesValue(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)
	return Value{kind: KindBytes, bytes: owned}
}

// ArrayValue returns an owned array value.
func ArrayValue(items []Value) Value { return Value{kind: KindArray, array: items} }

// MapValue returns an owned map value.
func MapValue(m Map) Value { return Value{kind: KindMap, object: m} }

// Kind reports this value's data-model kind.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean value, or ErrExpectedBool if Kind is not
// KindBool.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, encErr(ErrExpectedBool)
	}
	return v.boolVal, nil
}

// AsFloat returns the float value, or ErrExpectedFloat if Kind is not
// KindFloat.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, encErr(ErrExpectedFloat)
	}
	return math.Float64frombits(v.floatVal), nil
}

// AsText returns the text value, or ErrExpectedText if Kind is not KindText.
func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", encErr(ErrExpectedText)
	}
	return v.text, nil
}

// AsBytes returns the byte-string value, or ErrExpectedBytes if Kind is not
// KindBytes.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, encErr(ErrExpectedBytes)
	}
	return v.bytes, nil
}

// AsInteger returns the integer value, or ErrExpectedInteger if Kind is not
// KindInteger.
func (v Value) AsInteger() (CborInteger, error) {
	if v.kind != KindInteger {
		return CborInteger{}, encErr(ErrExpectedInteger)
	}
	return v.integer, nil
}

// AsArray returns the array items, or ErrExpectedArray if Kind is not
// KindArray.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, encErr(ErrExpectedArray)
	}
	return v.array, nil
}

// AsMap returns the map, or ErrExpectedMap if Kind is not KindMap.
func (v Value) AsMap() (Map, error) {
	if v.kind != KindMap {
		return Map{}, encErr(ErrExpectedMap)
	}
	return v.object, nil
}

// Encode appends this value's canonical encoding to e.
func (v Value) Encode(e *Encoder) error {
	switch v.kind {
	case KindNull:
		e.Null()
	case KindBool:
		e.Bool(v.boolVal)
	case KindFloat:
		e.bb.b = AppendFloat64Bits(e.bb.b, v.floatVal)
	case KindText:
		e.Text(v.text)
	case KindBytes:
		e.Bytes(v.bytes)
	case KindInteger:
		if v.integer.big {
			return e.IntBig(v.integer.bignum.negative, v.integer.bignum.magnitude)
		}
		e.Int(v.integer.safe)
	case KindArray:
		return e.Array(len(v.array), func(a *ArrayEmitter) error {
			for _, item := range v.array {
				item := item
				if err := a.Item(item.Encode); err != nil {
					return err
				}
			}
			return nil
		})
	case KindMap:
		return e.Map(v.object.Len(), func(m *MapEmitter) error {
			for i, key := range v.object.keys {
				val := v.object.values[i]
				if err := m.Entry(key, val.Encode); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return nil
}

// ToValue decodes a borrowed ValueRef into an owned Value tree. See
// decode.go for the non-recursive implementation.
func (v ValueRef) ToValue() (Value, error) {
	return decodeValueTree(v)
}
