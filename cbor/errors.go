package cbor

import "strconv"

// ErrorCode identifies the reason an operation rejected a CBOR item. The set
// is closed: every error this package returns carries exactly one of these
// codes, grouped below by the part of the profile that detects it.
type ErrorCode int

const (
	// Construction.

	// ErrInvalidLimits is returned by NewCborLimits when the state size cap
	// exceeds the message size cap. DecodeLimits values are not checked.
	ErrInvalidLimits ErrorCode = iota + 1

	// Framing.

	ErrUnexpectedEof
	ErrTrailingBytes
	ErrLengthOverflow
	ErrMessageLenLimitExceeded

	// Canonicality.

	ErrNonCanonicalEncoding
	ErrIndefiniteLengthForbidden
	ErrReservedAdditionalInfo
	ErrMalformedCanonical

	// Maps.

	ErrMapKeyMustBeText
	ErrDuplicateMapKey
	ErrNonCanonicalMapOrder

	// Tags / bignums.

	ErrForbiddenOrMalformedTag
	ErrBignumNotCanonical
	ErrBignumMustBeOutsideSafeRange

	// Simples / floats.

	ErrUnsupportedSimpleValue
	ErrNegativeZeroForbidden
	ErrNonCanonicalNaN

	// Integers / strings.

	ErrIntegerOutsideSafeRange
	ErrUtf8Invalid

	// Resource limits.

	ErrDepthLimitExceeded
	ErrTotalItemsLimitExceeded
	ErrArrayLenLimitExceeded
	ErrMapLenLimitExceeded
	ErrBytesLenLimitExceeded
	ErrTextLenLimitExceeded

	// Typed access / querying.

	ErrExpectedInteger
	ErrExpectedBytes
	ErrExpectedText
	ErrExpectedArray
	ErrExpectedMap
	ErrExpectedBool
	ErrExpectedFloat
	ErrExpectedNull
	ErrMissingKey
	ErrIndexOutOfBounds
	ErrArrayLenMismatch
	ErrMapLenMismatch
	ErrInvalidQuery

	// Editing.

	ErrPatchConflict

	// Resource.

	ErrAllocationFailed
)

var errorCodeText = map[ErrorCode]string{
	ErrInvalidLimits: "invalid CBOR limits",

	ErrUnexpectedEof:           "unexpected end of input",
	ErrTrailingBytes:           "trailing bytes after single CBOR item",
	ErrLengthOverflow:          "length overflow",
	ErrMessageLenLimitExceeded: "message length exceeds configured limit",

	ErrNonCanonicalEncoding:      "non-canonical integer/length encoding",
	ErrIndefiniteLengthForbidden: "indefinite length forbidden",
	ErrReservedAdditionalInfo:    "reserved additional info value",
	ErrMalformedCanonical:        "malformed CBOR item",

	ErrMapKeyMustBeText:     "map keys must be text strings",
	ErrDuplicateMapKey:      "duplicate map key",
	ErrNonCanonicalMapOrder: "non-canonical map key order",

	ErrForbiddenOrMalformedTag:      "forbidden or malformed CBOR tag",
	ErrBignumNotCanonical:           "bignum magnitude must be canonical (non-empty, no leading zero)",
	ErrBignumMustBeOutsideSafeRange: "bignum must be outside the safe integer range",

	ErrUnsupportedSimpleValue: "unsupported CBOR simple value",
	ErrNegativeZeroForbidden:  "negative zero forbidden",
	ErrNonCanonicalNaN:        "non-canonical NaN encoding",

	ErrIntegerOutsideSafeRange: "integer outside safe integer range",
	ErrUtf8Invalid:             "text must be valid UTF-8",

	ErrDepthLimitExceeded:      "nesting depth limit exceeded",
	ErrTotalItemsLimitExceeded: "total items limit exceeded",
	ErrArrayLenLimitExceeded:   "array length exceeds decode limits",
	ErrMapLenLimitExceeded:     "map length exceeds decode limits",
	ErrBytesLenLimitExceeded:   "byte string length exceeds decode limits",
	ErrTextLenLimitExceeded:    "text string length exceeds decode limits",

	ErrExpectedInteger:  "value is not an integer",
	ErrExpectedBytes:    "value is not a byte string",
	ErrExpectedText:     "value is not a text string",
	ErrExpectedArray:    "value is not an array",
	ErrExpectedMap:      "value is not a map",
	ErrExpectedBool:     "value is not a bool",
	ErrExpectedFloat:    "value is not a float",
	ErrExpectedNull:     "value is not null",
	ErrMissingKey:       "required map key is missing",
	ErrIndexOutOfBounds: "array index out of bounds",
	ErrArrayLenMismatch: "array has unexpected length",
	ErrMapLenMismatch:   "map has unexpected length",
	ErrInvalidQuery:     "invalid query path",

	ErrPatchConflict: "conflicting edit paths",

	ErrAllocationFailed: "allocation failed",
}

// String renders the stable, lowercase name used in error messages.
func (c ErrorCode) String() string {
	if s, ok := errorCodeText[c]; ok {
		return s
	}
	return "unknown cbor error (" + strconv.Itoa(int(c)) + ")"
}

// Error is returned by every fallible operation in this package: validation,
// querying, encoding, decoding, and editing. Offset is the byte position in
// the input where the violation was detected, and is 0 for encode-only
// errors that have no input to point into.
type Error struct {
	Code   ErrorCode
	Offset int
}

func (e *Error) Error() string {
	if e.Offset == 0 {
		return "cbor: " + e.Code.String()
	}
	return "cbor: " + e.Code.String() + " at offset " + strconv.Itoa(e.Offset)
}

// newErr constructs a decode/validate error at the given byte offset.
func newErr(code ErrorCode, offset int) *Error {
	return &Error{Code: code, Offset: offset}
}

// encErr constructs an encode-time error, which has no meaningful offset.
func encErr(code ErrorCode) *Error {
	return &Error{Code: code, Offset: 0}
}

// CodeOf extracts the ErrorCode from err, if err originated from this
// package. Callers that need to branch on error kind (rather than just
// propagate or log) should use this instead of type-asserting *Error
// directly.
func CodeOf(err error) (ErrorCode, bool) {
	if e, ok := err.(*Error); ok {
		return e.Code, true
	}
	return 0, false
}
