package cbor

import (
	"math"
	"math/bits"
)

// AppendUintMinimal appends a CBOR header for major type major carrying
// unsigned argument v, always in the shortest encoding RFC 8949 admits —
// this is what makes every encoder entry point in this file produce
// canonical output by construction, rather than needing a later
// minimality pass.
func AppendUintMinimal(b []byte, major uint8, v uint64) []byte {
	switch {
	case v <= addInfoDirect:
		return append(b, makeByte(major, uint8(v)))
	case v <= 0xff:
		return append(b, makeByte(major, addInfoUint8), byte(v))
	case v <= 0xffff:
		b = append(b, makeByte(major, addInfoUint16))
		return appendUint16BE(b, uint16(v))
	case v <= 0xffff_ffff:
		b = append(b, makeByte(major, addInfoUint32))
		return appendUint32BE(b, uint32(v))
	default:
		b = append(b, makeByte(major, addInfoUint64))
		return appendUint64BE(b, v)
	}
}

func appendUint16BE(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendUint32BE(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint64BE(b []byte, v uint64) []byte {
	return append(b,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// AppendNull appends CBOR null.
func AppendNull(b []byte) []byte { return append(b, makeByte(majorSimple, simpleNull)) }

// AppendBool appends a CBOR boolean.
func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, makeByte(majorSimple, simpleTrue))
	}
	return append(b, makeByte(majorSimple, simpleFalse))
}

// AppendInt64 appends v as a safe-range integer (major 0 or 1). Use
// AppendBignum for values outside the safe range.
func AppendInt64(b []byte, v int64) []byte {
	if v >= 0 {
		return AppendUintMinimal(b, majorUint, uint64(v))
	}
	return AppendUintMinimal(b, majorNegInt, uint64(-1-v))
}

// AppendIntAuto appends v as a safe-range integer if it fits (I7),
// otherwise as a canonical bignum (I8) whose magnitude it derives from v
// (-1-v for negative v, v otherwise). Callers with integers outside int64
// should use AppendBignum directly.
func AppendIntAuto(b []byte, v int64) []byte {
	if checkSafeInteger(v) {
		return AppendInt64(b, v)
	}
	negative := v < 0
	mag := minimalMagnitudeFromInt64(v)
	return AppendBignum(b, negative, mag)
}

func minimalMagnitudeFromInt64(v int64) []byte {
	var u uint64
	if v < 0 {
		u = uint64(-(v + 1))
	} else {
		u = uint64(v)
	}
	n := (bits.Len64(u) + 7) / 8
	if n == 0 {
		n = 1
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out
}

// AppendBignum appends a tag 2 (non-negative) or tag 3 (negative) bignum
// with the given big-endian magnitude. The caller is responsible for the
// magnitude already being canonical (non-empty, no leading zero) and
// outside the safe integer range (I8); AppendBignum does not re-derive it.
func AppendBignum(b []byte, negative bool, magnitude []byte) []byte {
	tag := uint64(tagPosBignum)
	if negative {
		tag = tagNegBignum
	}
	b = AppendUintMinimal(b, majorTag, tag)
	return AppendBytesRaw(b, magnitude)
}

// AppendBytesRaw appends a CBOR byte string.
func AppendBytesRaw(b []byte, bs []byte) []byte {
	b = AppendUintMinimal(b, majorBytes, uint64(len(bs)))
	return append(b, bs...)
}

// AppendText appends a CBOR text string.
func AppendText(b []byte, s string) []byte {
	b = AppendUintMinimal(b, majorText, uint64(len(s)))
	return append(b, s...)
}

// AppendFloat64Bits appends a CBOR float64 from an already-validated bit
// pattern. Use AppendFloat64 to validate and canonicalize NaN on the way in.
func AppendFloat64Bits(b []byte, bits uint64) []byte {
	b = append(b, makeByte(majorSimple, simpleFloat64))
	return appendUint64BE(b, bits)
}

// AppendFloat64 validates f against the profile's float rules (I9) —
// rejecting negative zero, canonicalizing any NaN to the single admitted
// bit pattern — and appends it.
func AppendFloat64(b []byte, f float64) ([]byte, error) {
	bits := math.Float64bits(f)
	if math.IsNaN(f) {
		bits = canonicalNaNBits
	}
	if code := validateFloatBits(bits); code != 0 {
		return b, encErr(code)
	}
	return AppendFloat64Bits(b, bits), nil
}

// AppendArrayHeader appends a definite-length array header for n items.
func AppendArrayHeader(b []byte, n int) []byte {
	return AppendUintMinimal(b, majorArray, uint64(n))
}

// AppendMapHeader appends a definite-length map header for n pairs.
func AppendMapHeader(b []byte, n int) []byte {
	return AppendUintMinimal(b, majorMap, uint64(n))
}

// Encoder is a write-only builder that guarantees canonical SACP-CBOR/1
// output by construction: every leaf method emits minimal-width arguments,
// and the map emitter enforces ascending canonical key order as entries are
// written rather than sorting afterward.
type Encoder struct {
	bb *ByteBuffer
}

// NewEncoder returns an Encoder writing into a freshly pooled buffer.
func NewEncoder() *Encoder {
	return &Encoder{bb: GetByteBuffer()}
}

// Release returns the Encoder's buffer to the pool. IntoCanonical calls it
// itself; call it directly only when abandoning the Encoder without
// finishing.
func (e *Encoder) Release() { PutByteBuffer(e.bb) }

// Null emits CBOR null.
func (e *Encoder) Null() { e.bb.b = AppendNull(e.bb.b) }

// Bool emits a CBOR boolean.
func (e *Encoder) Bool(v bool) { e.bb.b = AppendBool(e.bb.b, v) }

// Int emits v as a safe-range integer or canonical bignum, whichever I7
// requires.
func (e *Encoder) Int(v int64) { e.bb.b = AppendIntAuto(e.bb.b, v) }

// IntBig emits an integer outside int64's range as a canonical bignum.
// magnitude must be the canonical (non-empty, no leading zero) big-endian
// representation of the value's absolute magnitude per I8's convention for
// tag 2/3 (negative numbers use |v|-1).
func (e *Encoder) IntBig(negative bool, magnitude []byte) error {
	if code := validateBignumBytes(negative, magnitude); code != 0 {
		return encErr(code)
	}
	e.bb.b = AppendBignum(e.bb.b, negative, magnitude)
	return nil
}

// Float64 emits f, canonicalizing NaN and rejecting negative zero (I9).
func (e *Encoder) Float64(f float64) error {
	b, err := AppendFloat64(e.bb.b, f)
	if err != nil {
		return err
	}
	e.bb.b = b
	return nil
}

// Text emits a CBOR text string.
func (e *Encoder) Text(s string) { e.bb.b = AppendText(e.bb.b, s) }

// Bytes emits a CBOR byte string.
func (e *Encoder) Bytes(b []byte) { e.bb.b = AppendBytesRaw(e.bb.b, b) }

// Raw appends an already-canonical byte range verbatim — the mechanism the
// editor uses to preserve untouched subtrees exactly, and callers use to
// nest a pre-built CanonicalRef or ValueRef without re-encoding it.
func (e *Encoder) Raw(canonicalBytes []byte) { e.bb.b = append(e.bb.b, canonicalBytes...) }

// ArrayEmitter accepts exactly the number of items declared to Array.
type ArrayEmitter struct {
	enc      *Encoder
	want     int
	produced int
}

// Item exposes the underlying Encoder to emit the next array item. It
// returns ErrArrayLenMismatch if more than the declared length is produced.
func (a *ArrayEmitter) Item(f func(*Encoder) error) error {
	if a.produced >= a.want {
		return encErr(ErrArrayLenMismatch)
	}
	if err := f(a.enc); err != nil {
		return err
	}
	a.produced++
	return nil
}

// Array reserves an array header for exactly n items, then calls f with an
// ArrayEmitter. If f returns an error, or emits fewer than n items, the
// buffer is truncated back to before the header and the error (or
// ErrArrayLenMismatch) is returned.
func (e *Encoder) Array(n int, f func(*ArrayEmitter) error) error {
	mark := e.bb.Len()
	e.bb.b = AppendArrayHeader(e.bb.b, n)
	em := &ArrayEmitter{enc: e, want: n}
	if err := f(em); err != nil {
		e.bb.Truncate(mark)
		return err
	}
	if em.produced != n {
		e.bb.Truncate(mark)
		return encErr(ErrArrayLenMismatch)
	}
	return nil
}

// MapEmitter requires entries to be supplied in ascending canonical key
// order; it enforces I6 as entries are written.
type MapEmitter struct {
	enc          *Encoder
	want         int
	produced     int
	hasPrevKey   bool
	prevKeyStart int
	prevKeyEnd   int
}

// Entry emits one map entry with a plain text key. It returns
// ErrDuplicateMapKey or ErrNonCanonicalMapOrder (truncating back to before
// this entry) if key does not sort strictly after the previous one.
func (m *MapEmitter) Entry(key string, f func(*Encoder) error) error {
	return m.entry(AppendText(nil, key), f)
}

// EntryRaw emits one map entry using an already-canonically-encoded key
// (e.g. spliced from a ValueRef). The caller is responsible for encodedKey
// being a valid canonical CBOR text string.
func (m *MapEmitter) EntryRaw(encodedKey []byte, f func(*Encoder) error) error {
	return m.entry(encodedKey, f)
}

func (m *MapEmitter) entry(encodedKey []byte, f func(*Encoder) error) error {
	if m.produced >= m.want {
		return encErr(ErrMapLenMismatch)
	}
	mark := m.enc.bb.Len()
	m.enc.bb.b = append(m.enc.bb.b, encodedKey...)
	keyStart, keyEnd := mark, m.enc.bb.Len()

	if m.hasPrevKey {
		prev := m.enc.bb.Bytes()[m.prevKeyStart:m.prevKeyEnd]
		curr := m.enc.bb.Bytes()[keyStart:keyEnd]
		cmp := cmpEncodedKeyBytes(prev, curr)
		if cmp == 0 {
			m.enc.bb.Truncate(mark)
			return encErr(ErrDuplicateMapKey)
		}
		if cmp > 0 {
			m.enc.bb.Truncate(mark)
			return encErr(ErrNonCanonicalMapOrder)
		}
	}

	if err := f(m.enc); err != nil {
		m.enc.bb.Truncate(mark)
		return err
	}

	m.hasPrevKey = true
	m.prevKeyStart, m.prevKeyEnd = keyStart, keyEnd
	m.produced++
	return nil
}

// Map reserves a map header for exactly n pairs, then calls f with a
// MapEmitter. If f returns an error, or emits fewer than n pairs, the
// buffer is truncated back to before the header and the error (or
// ErrMapLenMismatch) is returned.
func (e *Encoder) Map(n int, f func(*MapEmitter) error) error {
	mark := e.bb.Len()
	e.bb.b = AppendMapHeader(e.bb.b, n)
	em := &MapEmitter{enc: e, want: n}
	if err := f(em); err != nil {
		e.bb.Truncate(mark)
		return err
	}
	if em.produced != n {
		e.bb.Truncate(mark)
		return encErr(ErrMapLenMismatch)
	}
	return nil
}

// IntoCanonical closes the builder and returns its bytes as a CanonicalRef.
// The Encoder must not be used afterward; the returned bytes are an owned
// copy, independent of the pooled buffer, which is returned to the pool.
func (e *Encoder) IntoCanonical() (CanonicalRef, error) {
	out := make([]byte, e.bb.Len())
	copy(out, e.bb.Bytes())
	e.Release()
	return CanonicalRef{bytes: out}, nil
}
