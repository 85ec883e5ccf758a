package cbor

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Diagnostic renders a validated value in RFC 8949 §8 diagnostic notation.
// Since SACP-CBOR/1 forbids indefinite lengths and the wider simple-value
// and float-width space, the renderer is considerably smaller than a
// general CBOR one: there is no streaming-chunk case, no float16/32, and
// no undefined or break marker to handle.
func (r CanonicalRef) Diagnostic() (string, error) {
	return Diag(r.Root())
}

// Diag renders v in diagnostic notation.
func Diag(v ValueRef) (string, error) {
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	if err := diagOne(bb, v); err != nil {
		return "", err
	}
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return string(out), nil
}

func diagOne(buf *ByteBuffer, v ValueRef) error {
	kind, err := v.Kind()
	if err != nil {
		return err
	}
	switch kind {
	case KindInteger:
		ref, err := v.AsInteger()
		if err != nil {
			return err
		}
		return diagInteger(buf, ref)
	case KindBytes:
		b, err := v.AsBytes()
		if err != nil {
			return err
		}
		buf.WriteString("h'")
		buf.WriteString(hex.EncodeToString(b))
		buf.WriteString("'")
		return nil
	case KindText:
		s, err := v.AsText()
		if err != nil {
			return err
		}
		buf.WriteString(strconv.Quote(s))
		return nil
	case KindArray:
		arr, err := v.Array()
		if err != nil {
			return err
		}
		buf.WriteString("[")
		it := arr.Iter()
		first := true
		for {
			item, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !first {
				buf.WriteString(", ")
			}
			first = false
			if err := diagOne(buf, item); err != nil {
				return err
			}
		}
		buf.WriteString("]")
		return nil
	case KindMap:
		mp, err := v.Map()
		if err != nil {
			return err
		}
		buf.WriteString("{")
		it := mp.Iter()
		first := true
		for {
			key, val, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !first {
				buf.WriteString(", ")
			}
			first = false
			buf.WriteString(strconv.Quote(key))
			buf.WriteString(": ")
			if err := diagOne(buf, val); err != nil {
				return err
			}
		}
		buf.WriteString("}")
		return nil
	case KindBool:
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		if b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindFloat:
		f, err := v.AsFloat()
		if err != nil {
			return err
		}
		buf.WriteString(formatFloatDiag(f))
		return nil
	}
	return newErr(ErrMalformedCanonical, v.Offset())
}

func diagInteger(buf *ByteBuffer, ref CborIntegerRef) error {
	if !ref.Big {
		buf.WriteString(strconv.FormatInt(ref.Safe, 10))
		return nil
	}
	tag := "2"
	if ref.Bignum.Negative {
		tag = "3"
	}
	buf.WriteString(tag)
	buf.WriteString("(h'")
	buf.WriteString(hex.EncodeToString(ref.Bignum.Magnitude))
	buf.WriteString("')")
	return nil
}

// formatFloatDiag matches RFC 8949's diagnostic-notation float rendering:
// NaN and the infinities are spelled out, everything else uses the
// shortest round-tripping decimal form, with ".0" added when that form has
// neither a decimal point nor an exponent so a float never reads as an
// integer.
func formatFloatDiag(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
