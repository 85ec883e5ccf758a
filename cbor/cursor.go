package cbor

import (
	"encoding/binary"
	"unicode/utf8"
	"unsafe"
)

// cursor walks a byte slice left to right, tracking the read position so
// every error can report the offset where it was detected.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte, pos int) cursor {
	return cursor{data: data, pos: pos}
}

func (c *cursor) position() int { return c.pos }

func (c *cursor) readByte() (byte, error) {
	off := c.pos
	if off >= len(c.data) {
		return 0, newErr(ErrUnexpectedEof, off)
	}
	b := c.data[off]
	c.pos++
	return b, nil
}

func (c *cursor) readExact(n int) ([]byte, error) {
	off := c.pos
	end := off + n
	if end < off {
		return nil, newErr(ErrLengthOverflow, off)
	}
	if end > len(c.data) {
		return nil, newErr(ErrUnexpectedEof, off)
	}
	s := c.data[off:end]
	c.pos = end
	return s, nil
}

func (c *cursor) readUint64BE() (uint64, error) {
	s, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(s), nil
}

// readUintArg decodes the CBOR argument that follows an initial byte whose
// additional-info field is ai. Values 0..23 are encoded directly; 24/25/26/27
// mean a trailing 1/2/4/8-byte big-endian argument follows. When checked is
// true, an argument that could have been encoded more compactly is rejected
// as ErrNonCanonicalEncoding (I3).
func readUintArg(c *cursor, ai uint8, off int, checked bool) (uint64, error) {
	switch {
	case ai <= addInfoDirect:
		return uint64(ai), nil
	case ai == addInfoUint8:
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		v := uint64(b)
		if checked && v < 24 {
			return 0, newErr(ErrNonCanonicalEncoding, off)
		}
		return v, nil
	case ai == addInfoUint16:
		s, err := c.readExact(2)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.BigEndian.Uint16(s))
		if checked && v <= 0xff {
			return 0, newErr(ErrNonCanonicalEncoding, off)
		}
		return v, nil
	case ai == addInfoUint32:
		s, err := c.readExact(4)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.BigEndian.Uint32(s))
		if checked && v <= 0xffff {
			return 0, newErr(ErrNonCanonicalEncoding, off)
		}
		return v, nil
	case ai == addInfoUint64:
		v, err := c.readUint64BE()
		if err != nil {
			return 0, err
		}
		if checked && v <= 0xffff_ffff {
			return 0, newErr(ErrNonCanonicalEncoding, off)
		}
		return v, nil
	default:
		return 0, newErr(ErrReservedAdditionalInfo, off)
	}
}

// readLen reads a CBOR length argument, rejecting the indefinite-length
// marker (I2) and any value that would overflow int on this platform.
func readLen(c *cursor, ai uint8, off int, checked bool) (int, error) {
	if ai == addInfoIndefinite {
		return 0, newErr(ErrIndefiniteLengthForbidden, off)
	}
	v, err := readUintArg(c, ai, off, checked)
	if err != nil {
		return 0, err
	}
	if v > uint64(^uint(0)>>1) {
		return 0, newErr(ErrLengthOverflow, off)
	}
	return int(v), nil
}

// parseTextBody reads a text string's payload, given its already-decoded
// length, applies the text length limit (if any), and validates or trusts
// its UTF-8 depending on checked.
func parseTextBody(c *cursor, limits *DecodeLimits, off, n int, checked bool) (string, error) {
	if limits != nil && n > limits.MaxTextLen {
		return "", newErr(ErrTextLenLimitExceeded, off)
	}
	b, err := c.readExact(n)
	if err != nil {
		return "", err
	}
	if checked {
		if !utf8.Valid(b) {
			return "", newErr(ErrUtf8Invalid, off)
		}
		return string(b), nil
	}
	return unsafeString(b), nil
}

// unsafeString reinterprets b as a string without copying. Every call site
// only uses this for a trusted re-read of bytes already validated as UTF-8
// (or, for map keys in query.go, bytes already proven well-formed by a
// prior Validate pass), and the returned string's lifetime is bounded by
// the caller's own ValueRef, which keeps the backing array alive.
func unsafeString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// parseBignum reads the byte-string payload of a tag 2 (positive) or tag 3
// (negative) bignum, applying the bytes length limit and, when checked,
// validating canonicality (I8).
func parseBignum(c *cursor, limits *DecodeLimits, off int, ai uint8, checked bool) (negative bool, magnitude []byte, err error) {
	tag, err := readUintArg(c, ai, off, checked)
	if err != nil {
		return false, nil, err
	}
	switch tag {
	case tagPosBignum:
		negative = false
	case tagNegBignum:
		negative = true
	default:
		return false, nil, newErr(ErrForbiddenOrMalformedTag, off)
	}

	mOff := c.position()
	first, err := c.readByte()
	if err != nil {
		return false, nil, err
	}
	if majorOf(first) != majorBytes {
		return false, nil, newErr(ErrForbiddenOrMalformedTag, mOff)
	}
	mLen, err := readLen(c, addInfoOf(first), mOff, checked)
	if err != nil {
		return false, nil, err
	}
	if limits != nil && mLen > limits.MaxBytesLen {
		return false, nil, newErr(ErrBytesLenLimitExceeded, mOff)
	}
	mag, err := c.readExact(mLen)
	if err != nil {
		return false, nil, err
	}
	if checked {
		if code := validateBignumBytes(negative, mag); code != 0 {
			return false, nil, newErr(code, mOff)
		}
	}
	return negative, mag, nil
}
