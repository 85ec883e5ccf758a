package cbor

import (
	"math"
	"sort"
)

// Kind is the CBOR data model this package exposes to queries: major types
// 0/1 and tag 2/3 bignums collapse into a single Integer kind, matching how
// SACP-CBOR/1 treats them as one logical value space (I7/I8).
type Kind uint8

const (
	KindInteger Kind = iota
	KindBytes
	KindText
	KindArray
	KindMap
	KindBool
	KindNull
	KindFloat
)

// PathElem selects either a map key or an array index while navigating a
// ValueRef with At.
type PathElem struct {
	key      string
	index    int
	isIndex  bool
}

// Key builds a map-key path element.
func Key(k string) PathElem { return PathElem{key: k} }

// Index builds an array-index path element.
func Index(i int) PathElem { return PathElem{index: i, isIndex: true} }

// BigIntRef is a borrowed view of a tag 2/3 bignum outside the safe integer
// range.
type BigIntRef struct {
	Negative  bool
	Magnitude []byte
}

// CborIntegerRef is either a safe-range integer or a bignum (I7/I8); exactly
// one of the two is meaningful, selected by Big.
type CborIntegerRef struct {
	Big    bool
	Safe   int64
	Bignum BigIntRef
}

// ValueRef is a zero-copy view of one CBOR value inside message bytes that
// have already passed Validate. Every accessor re-walks only the bytes it
// needs; nothing is copied unless the caller asks for an owned value.
// Skipping over a value allocates a scratch frame stack.
type ValueRef struct {
	data       []byte
	start, end int
}

// Root returns a ValueRef over the whole canonical item.
func (r CanonicalRef) Root() ValueRef {
	return ValueRef{data: r.bytes, start: 0, end: len(r.bytes)}
}

// Bytes returns the raw canonical encoding of this value.
func (v ValueRef) Bytes() []byte { return v.data[v.start:v.end] }

// Offset returns the byte offset of this value within the message.
func (v ValueRef) Offset() int { return v.start }

// Len returns the byte length of this value's canonical encoding.
func (v ValueRef) Len() int { return v.end - v.start }

// Equal compares two values by their canonical bytes.
func (v ValueRef) Equal(other ValueRef) bool { return bytesEqual(v.Bytes(), other.Bytes()) }

// Kind reports the CBOR data-model kind of this value.
func (v ValueRef) Kind() (Kind, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return 0, err
	}
	switch majorOf(ib) {
	case majorUint, majorNegInt:
		return KindInteger, nil
	case majorBytes:
		return KindBytes, nil
	case majorText:
		return KindText, nil
	case majorArray:
		return KindArray, nil
	case majorMap:
		return KindMap, nil
	case majorTag:
		tag, err := readUintArg(&c, addInfoOf(ib), off, false)
		if err != nil {
			return 0, err
		}
		if tag == tagPosBignum || tag == tagNegBignum {
			return KindInteger, nil
		}
		return 0, newErr(ErrMalformedCanonical, off)
	case majorSimple:
		switch addInfoOf(ib) {
		case simpleFalse, simpleTrue:
			return KindBool, nil
		case simpleNull:
			return KindNull, nil
		case simpleFloat64:
			return KindFloat, nil
		}
	}
	return 0, newErr(ErrMalformedCanonical, off)
}

// valueEnd returns the offset just past the value starting at start, by
// trusting the bytes are already canonical (checked=false skips the
// re-validation Validate already performed).
func valueEnd(data []byte, start int) (int, error) {
	end, _, err := scanOne(data, start, false, nil)
	return end, err
}

// AsBool decodes this value as a CBOR boolean.
func (v ValueRef) AsBool() (bool, error) {
	if v.start >= len(v.data) {
		return false, newErr(ErrMalformedCanonical, v.start)
	}
	switch v.data[v.start] {
	case makeByte(majorSimple, simpleFalse):
		return false, nil
	case makeByte(majorSimple, simpleTrue):
		return true, nil
	default:
		return false, newErr(ErrExpectedBool, v.start)
	}
}

// AsNull reports whether this value is CBOR null.
func (v ValueRef) AsNull() bool {
	return v.start < len(v.data) && v.data[v.start] == makeByte(majorSimple, simpleNull)
}

// AsFloat decodes this value as a CBOR float64.
func (v ValueRef) AsFloat() (float64, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return 0, err
	}
	if majorOf(ib) != majorSimple || addInfoOf(ib) != simpleFloat64 {
		return 0, newErr(ErrExpectedFloat, off)
	}
	bits, err := c.readUint64BE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// AsText decodes this value as a CBOR text string, borrowing the underlying
// bytes without copying.
func (v ValueRef) AsText() (string, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return "", err
	}
	if majorOf(ib) != majorText {
		return "", newErr(ErrExpectedText, off)
	}
	n, err := readLen(&c, addInfoOf(ib), off, false)
	if err != nil {
		return "", err
	}
	b, err := c.readExact(n)
	if err != nil {
		return "", err
	}
	return unsafeString(b), nil
}

// AsBytes decodes this value as a CBOR byte string.
func (v ValueRef) AsBytes() ([]byte, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if majorOf(ib) != majorBytes {
		return nil, newErr(ErrExpectedBytes, off)
	}
	n, err := readLen(&c, addInfoOf(ib), off, false)
	if err != nil {
		return nil, err
	}
	return c.readExact(n)
}

// AsInteger decodes this value as a CBOR integer, safe-range or bignum.
func (v ValueRef) AsInteger() (CborIntegerRef, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return CborIntegerRef{}, err
	}
	switch majorOf(ib) {
	case majorUint:
		u, err := readUintArg(&c, addInfoOf(ib), off, false)
		if err != nil {
			return CborIntegerRef{}, err
		}
		return CborIntegerRef{Safe: int64(u)}, nil
	case majorNegInt:
		n, err := readUintArg(&c, addInfoOf(ib), off, false)
		if err != nil {
			return CborIntegerRef{}, err
		}
		return CborIntegerRef{Safe: -1 - int64(n)}, nil
	case majorTag:
		negative, mag, err := parseBignum(&c, nil, off, addInfoOf(ib), false)
		if err != nil {
			return CborIntegerRef{}, err
		}
		return CborIntegerRef{Big: true, Bignum: BigIntRef{Negative: negative, Magnitude: mag}}, nil
	default:
		return CborIntegerRef{}, newErr(ErrExpectedInteger, off)
	}
}

// ArrayRef is a borrowed view of a CBOR array.
type ArrayRef struct {
	data             []byte
	arrayOff         int
	itemsStart       int
	length           int
}

// Array interprets this value as a CBOR array.
func (v ValueRef) Array() (ArrayRef, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return ArrayRef{}, err
	}
	if majorOf(ib) != majorArray {
		return ArrayRef{}, newErr(ErrExpectedArray, off)
	}
	n, err := readLen(&c, addInfoOf(ib), off, false)
	if err != nil {
		return ArrayRef{}, err
	}
	return ArrayRef{data: v.data, arrayOff: off, itemsStart: c.position(), length: n}, nil
}

// Len returns the number of items in the array.
func (a ArrayRef) Len() int { return a.length }

// Get returns the item at index, or ok=false if index is out of bounds.
func (a ArrayRef) Get(index int) (v ValueRef, ok bool, err error) {
	if index < 0 || index >= a.length {
		return ValueRef{}, false, nil
	}
	pos := a.itemsStart
	for i := 0; i < a.length; i++ {
		start := pos
		end, err := valueEnd(a.data, start)
		if err != nil {
			return ValueRef{}, false, err
		}
		if i == index {
			return ValueRef{data: a.data, start: start, end: end}, true, nil
		}
		pos = end
	}
	return ValueRef{}, false, newErr(ErrMalformedCanonical, a.arrayOff)
}

// ArrayIter walks array items in order.
type ArrayIter struct {
	data      []byte
	pos       int
	remaining int
}

// Iter returns a fresh iterator over this array's items.
func (a ArrayRef) Iter() *ArrayIter {
	return &ArrayIter{data: a.data, pos: a.itemsStart, remaining: a.length}
}

// Next advances the iterator. ok is false once the array is exhausted.
func (it *ArrayIter) Next() (v ValueRef, ok bool, err error) {
	if it.remaining == 0 {
		return ValueRef{}, false, nil
	}
	start := it.pos
	end, err := valueEnd(it.data, start)
	if err != nil {
		it.remaining = 0
		return ValueRef{}, false, err
	}
	it.pos = end
	it.remaining--
	return ValueRef{data: it.data, start: start, end: end}, true, nil
}

// MapRef is a borrowed view of a CBOR map. Entries appear in canonical
// order: shorter encoded key first, then lexicographic.
type MapRef struct {
	data          []byte
	mapOff        int
	entriesStart  int
	length        int
}

// Map interprets this value as a CBOR map.
func (v ValueRef) Map() (MapRef, error) {
	c := newCursor(v.data, v.start)
	off := v.start
	ib, err := c.readByte()
	if err != nil {
		return MapRef{}, err
	}
	if majorOf(ib) != majorMap {
		return MapRef{}, newErr(ErrExpectedMap, off)
	}
	n, err := readLen(&c, addInfoOf(ib), off, false)
	if err != nil {
		return MapRef{}, err
	}
	return MapRef{data: v.data, mapOff: off, entriesStart: c.position(), length: n}, nil
}

// Len returns the number of entries in the map.
func (m MapRef) Len() int { return m.length }

func readMapKey(data []byte, pos int) (keyBytes []byte, valueStart int, err error) {
	c := newCursor(data, pos)
	off := pos
	ib, err := c.readByte()
	if err != nil {
		return nil, 0, err
	}
	if majorOf(ib) != majorText {
		return nil, 0, newErr(ErrMalformedCanonical, off)
	}
	n, err := readLen(&c, addInfoOf(ib), off, false)
	if err != nil {
		return nil, 0, err
	}
	b, err := c.readExact(n)
	if err != nil {
		return nil, 0, err
	}
	return b, c.position(), nil
}

func cmpKeyBytesToQuery(keyPayload []byte, query string) int {
	q := []byte(query)
	if len(keyPayload) != len(q) {
		if len(keyPayload) < len(q) {
			return -1
		}
		return 1
	}
	for i := range keyPayload {
		if keyPayload[i] != q[i] {
			if keyPayload[i] < q[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Get looks up a single key, scanning the map once and stopping as soon as
// canonical ordering proves the key cannot appear later.
func (m MapRef) Get(key string) (v ValueRef, ok bool, err error) {
	pos := m.entriesStart
	for i := 0; i < m.length; i++ {
		keyBytes, valueStart, err := readMapKey(m.data, pos)
		if err != nil {
			return ValueRef{}, false, err
		}
		end, err := valueEnd(m.data, valueStart)
		if err != nil {
			return ValueRef{}, false, err
		}
		switch cmpKeyBytesToQuery(keyBytes, key) {
		case -1:
			pos = end
		case 0:
			return ValueRef{data: m.data, start: valueStart, end: end}, true, nil
		default:
			return ValueRef{}, false, nil
		}
	}
	return ValueRef{}, false, nil
}

// Require looks up key and returns ErrMissingKey instead of ok=false.
func (m MapRef) Require(key string) (ValueRef, error) {
	v, ok, err := m.Get(key)
	if err != nil {
		return ValueRef{}, err
	}
	if !ok {
		return ValueRef{}, newErr(ErrMissingKey, m.mapOff)
	}
	return v, nil
}

// GetMany looks up multiple keys in a single merge-join pass over the map,
// exploiting canonical ordering instead of one scan per key. Keys may be
// given in any order; out[i] receives the result for keys[i]. Returns
// ErrInvalidQuery if keys contains a duplicate.
func (m MapRef) GetMany(keys []string, out []ValueRef) ([]bool, error) {
	found := make([]bool, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	idxs := make([]int, len(keys))
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool {
		return cmpTextKeys(keys[idxs[a]], keys[idxs[b]]) < 0
	})
	for i := 1; i < len(idxs); i++ {
		if keys[idxs[i-1]] == keys[idxs[i]] {
			return nil, newErr(ErrInvalidQuery, m.mapOff)
		}
	}

	pos := m.entriesStart
	remaining := m.length
	qPos := 0
	var cachedKey []byte
	var cachedValueStart int
	haveCached := false

	for qPos < len(idxs) && remaining > 0 {
		if !haveCached {
			kb, vs, err := readMapKey(m.data, pos)
			if err != nil {
				return nil, err
			}
			cachedKey, cachedValueStart = kb, vs
			haveCached = true
		}

		outIdx := idxs[qPos]
		switch cmpKeyBytesToQuery(cachedKey, keys[outIdx]) {
		case -1:
			end, err := valueEnd(m.data, cachedValueStart)
			if err != nil {
				return nil, err
			}
			pos = end
			remaining--
			haveCached = false
		case 0:
			end, err := valueEnd(m.data, cachedValueStart)
			if err != nil {
				return nil, err
			}
			out[outIdx] = ValueRef{data: m.data, start: cachedValueStart, end: end}
			found[outIdx] = true
			pos = end
			remaining--
			haveCached = false
			qPos++
		default:
			qPos++
		}
	}
	return found, nil
}

// RequireMany is GetMany but returns ErrMissingKey if any key is absent.
func (m MapRef) RequireMany(keys []string, out []ValueRef) error {
	found, err := m.GetMany(keys, out)
	if err != nil {
		return err
	}
	for _, ok := range found {
		if !ok {
			return newErr(ErrMissingKey, m.mapOff)
		}
	}
	return nil
}

// MapIter walks map entries in canonical key order.
type MapIter struct {
	data      []byte
	pos       int
	remaining int
}

// Iter returns a fresh iterator over this map's entries.
func (m MapRef) Iter() *MapIter {
	return &MapIter{data: m.data, pos: m.entriesStart, remaining: m.length}
}

// Next advances the iterator. ok is false once the map is exhausted.
func (it *MapIter) Next() (key string, v ValueRef, ok bool, err error) {
	if it.remaining == 0 {
		return "", ValueRef{}, false, nil
	}
	keyBytes, valueStart, err := readMapKey(it.data, it.pos)
	if err != nil {
		it.remaining = 0
		return "", ValueRef{}, false, err
	}
	end, err := valueEnd(it.data, valueStart)
	if err != nil {
		it.remaining = 0
		return "", ValueRef{}, false, err
	}
	it.pos = end
	it.remaining--
	return unsafeString(keyBytes), ValueRef{data: it.data, start: valueStart, end: end}, true, nil
}

// Extras returns the map's entries whose key is not present in usedKeys,
// in canonical order. usedKeys must already be strictly increasing under
// canonical text-key ordering (see cmpTextKeys); this lets the residue be
// computed in a single merge pass instead of a lookup per entry.
func (m MapRef) Extras(usedKeys []string) ([]struct {
	Key   string
	Value ValueRef
}, error) {
	for i := 1; i < len(usedKeys); i++ {
		if cmpTextKeys(usedKeys[i-1], usedKeys[i]) >= 0 {
			return nil, newErr(ErrInvalidQuery, m.mapOff)
		}
	}

	var out []struct {
		Key   string
		Value ValueRef
	}
	it := m.Iter()
	usedIdx := 0
	for {
		k, v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for usedIdx < len(usedKeys) && cmpTextKeys(usedKeys[usedIdx], k) < 0 {
			usedIdx++
		}
		if usedIdx < len(usedKeys) && usedKeys[usedIdx] == k {
			usedIdx++
			continue
		}
		out = append(out, struct {
			Key   string
			Value ValueRef
		}{Key: k, Value: v})
	}
	return out, nil
}

// At traverses a nested path of map keys and array indices starting from v.
// ok is false if any key is missing or any index is out of bounds; err is
// non-nil only for type mismatches or malformed canonical input.
func (v ValueRef) At(path []PathElem) (result ValueRef, ok bool, err error) {
	cur := v
	for _, pe := range path {
		if pe.isIndex {
			arr, err := cur.Array()
			if err != nil {
				return ValueRef{}, false, err
			}
			next, found, err := arr.Get(pe.index)
			if err != nil {
				return ValueRef{}, false, err
			}
			if !found {
				return ValueRef{}, false, nil
			}
			cur = next
		} else {
			mp, err := cur.Map()
			if err != nil {
				return ValueRef{}, false, err
			}
			next, found, err := mp.Get(pe.key)
			if err != nil {
				return ValueRef{}, false, err
			}
			if !found {
				return ValueRef{}, false, nil
			}
			cur = next
		}
	}
	return cur, true, nil
}
