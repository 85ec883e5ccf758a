package cbor

// CanonicalRef is a byte slice that Validate has certified as exactly one
// canonical SACP-CBOR/1 data item. Two CanonicalRef values are semantically
// equal iff their bytes are equal.
type CanonicalRef struct {
	bytes []byte
}

// Bytes returns the canonical encoding.
func (r CanonicalRef) Bytes() []byte { return r.bytes }

// Len returns the length in bytes of the canonical encoding.
func (r CanonicalRef) Len() int { return len(r.bytes) }

// Equal reports whether two canonical references have identical bytes.
func (r CanonicalRef) Equal(other CanonicalRef) bool {
	return bytesEqual(r.bytes, other.bytes)
}

// Validate certifies that b contains exactly one SACP-CBOR/1 canonical data
// item and nothing else: definite lengths only, minimal-width integer and
// length arguments, ascending-canonical-order unique text map keys, integers
// in the safe range (else a canonical bignum), float64 values free of
// negative zero and non-canonical NaN, and only the tags and simple values
// this profile admits.
//
// limits bounds the resources the scan may consume; see DecodeLimits and
// ForBytes for a conservative default derived from len(b).
func Validate(b []byte, limits DecodeLimits) (CanonicalRef, error) {
	if len(b) > limits.MaxInputBytes {
		return CanonicalRef{}, newErr(ErrMessageLenLimitExceeded, 0)
	}
	end, _, err := scanOne(b, 0, true, &limits)
	if err != nil {
		return CanonicalRef{}, err
	}
	if end != len(b) {
		return CanonicalRef{}, newErr(ErrTrailingBytes, end)
	}
	return CanonicalRef{bytes: b}, nil
}
