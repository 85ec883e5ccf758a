package cbor

import "bytes"

// cmpEncodedKeyBytes orders two CBOR-encoded map keys the canonical way:
// shorter encoding sorts first, then lexicographic byte comparison.
func cmpEncodedKeyBytes(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

// isStrictlyIncreasingEncoded reports whether prev < curr under canonical
// CBOR map key ordering.
func isStrictlyIncreasingEncoded(prev, curr []byte) bool {
	return cmpEncodedKeyBytes(prev, curr) < 0
}

// cmpTextKeys orders two plain (unencoded) text keys the way their
// canonical CBOR encodings would sort: shorter UTF-8 payload first, since
// encoded length is strictly monotone in payload length for text strings,
// then lexicographic byte comparison.
func cmpTextKeys(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare([]byte(a), []byte(b))
}

// checkSafeInteger reports whether v lies in the SACP-CBOR/1 safe integer
// range, [-(2^53-1), +(2^53-1)] (I7).
func checkSafeInteger(v int64) bool {
	return v >= MinSafeInteger && v <= MaxSafeIntegerI64
}

// validateBignumBytes checks that a bignum magnitude is canonical (non-empty,
// no leading zero byte) and that its value lies outside the safe integer
// range (I8) — otherwise it should have been encoded as a plain integer.
// Returns 0 (no ErrorCode is ever 0) on success.
func validateBignumBytes(negative bool, magnitude []byte) ErrorCode {
	if len(magnitude) == 0 || magnitude[0] == 0 {
		return ErrBignumNotCanonical
	}

	cmp := cmpBigEndian(magnitude, maxSafeIntegerBE[:])

	var outside bool
	if negative {
		// tag 3: value is -1-n. Safe integers cover n <= MaxSafeInteger-1,
		// i.e. cmp == Less is still safe; Equal and Greater are outside.
		outside = cmp >= 0
	} else {
		// tag 2: value is +n. Safe integers cover n <= MaxSafeInteger.
		outside = cmp > 0
	}
	if !outside {
		return ErrBignumMustBeOutsideSafeRange
	}
	return 0
}

func cmpBigEndian(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

// validateFloatBits checks an IEEE-754 float64 bit pattern against the
// profile's float rules (I9): negative zero is forbidden, and the only
// admitted NaN is the single canonical bit pattern.
func validateFloatBits(bits uint64) ErrorCode {
	if bits == negativeZeroBits {
		return ErrNegativeZeroForbidden
	}
	isNaN := bits&float64ExpMantMask == float64ExpMantMask && bits&float64MantMask != 0
	if isNaN && bits != canonicalNaNBits {
		return ErrNonCanonicalNaN
	}
	return 0
}
