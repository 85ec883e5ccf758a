package cbor

// MaxSafeInteger is 2^53-1, the largest integer representable exactly as
// an IEEE-754 double. SACP-CBOR/1 requires integers in
// [-(2^53-1), +(2^53-1)] to use major type 0/1; integers outside that
// range must use a bignum (tag 2/3) instead (I7).
const MaxSafeInteger uint64 = 9_007_199_254_740_991

// MaxSafeIntegerI64 is MaxSafeInteger as an int64.
const MaxSafeIntegerI64 int64 = 9_007_199_254_740_991

// MinSafeInteger is -MaxSafeIntegerI64.
const MinSafeInteger int64 = -MaxSafeIntegerI64

// maxSafeIntegerBE is the canonical big-endian magnitude of MaxSafeInteger
// (2^53-1 = 0x001f_ffff_ffff_ffff), used to compare bignum magnitudes
// against the safe-range boundary without a big-integer library.
var maxSafeIntegerBE = [7]byte{0x1f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// canonicalNaNBits is the single NaN bit pattern this profile admits (I9).
const canonicalNaNBits uint64 = 0x7ff8_0000_0000_0000

// negativeZeroBits is the forbidden -0.0 bit pattern (I9).
const negativeZeroBits uint64 = 0x8000_0000_0000_0000

const float64ExpMantMask uint64 = 0x7ff0_0000_0000_0000
const float64MantMask uint64 = 0x000f_ffff_ffff_ffff
