// Package cbor implements the SACP-CBOR/1 profile: a restricted, fully
// canonical subset of CBOR (RFC 8949) for control-protocol messages whose
// byte-level identity is security-relevant. Every valid data item has a
// unique canonical byte encoding, so two messages are semantically equal
// iff their bytes are equal.
//
// The package is organized around four cooperating pieces: Validate
// certifies that a byte slice is exactly one canonical data item; the
// ValueRef/MapRef/ArrayRef family navigates validated bytes without
// copying them (skipping over a value allocates a scratch frame stack); the
// Encoder streaming builder emits canonical bytes by
// construction; and the Editor applies path-addressed edits to a
// validated byte range, re-emitting only the touched subtrees.
package cbor

// CBOR major types (top 3 bits of the initial byte).
const (
	majorUint   = 0 // unsigned integer
	majorNegInt = 1 // negative integer (value is -1-n)
	majorBytes  = 2 // byte string
	majorText   = 3 // UTF-8 text string
	majorArray  = 4 // array
	majorMap    = 5 // map
	majorTag    = 6 // semantic tag (2 or 3 only, in this profile)
	majorSimple = 7 // simple values and floats
)

// Additional-info values (low 5 bits of the initial byte).
const (
	addInfoDirect     = 23 // largest value encoded directly in the initial byte
	addInfoUint8      = 24 // 1-byte argument follows
	addInfoUint16     = 25 // 2-byte argument follows
	addInfoUint32     = 26 // 4-byte argument follows
	addInfoUint64     = 27 // 8-byte argument follows
	addInfoIndefinite = 31 // indefinite length — forbidden in this profile (I2)
)

// Simple values under major type 7.
const (
	simpleFalse   = 20
	simpleTrue    = 21
	simpleNull    = 22
	simpleFloat64 = 27
)

// Tags admitted by this profile (I10). No other tag value is valid.
const (
	tagPosBignum = 2
	tagNegBignum = 3
)

func makeByte(major, addInfo uint8) byte { return byte(major<<5 | addInfo) }

func majorOf(b byte) uint8 { return b >> 5 }

func addInfoOf(b byte) uint8 { return b & 0x1f }
