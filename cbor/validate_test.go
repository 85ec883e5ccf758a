package cbor

import "testing"

func TestValidate_S1_SimpleMap(t *testing.T) {
	b := []byte{0xA1, 0x61, 0x61, 0x01}
	ref, err := Validate(b, testLimits())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	mp, err := ref.Root().Map()
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	v, ok, err := mp.Get("a")
	if err != nil || !ok {
		t.Fatalf("Get(a): ok=%v err=%v", ok, err)
	}
	iv, err := v.AsInteger()
	if err != nil {
		t.Fatalf("AsInteger: %v", err)
	}
	if iv.Big || iv.Safe != 1 {
		t.Fatalf("got %+v, want Safe(1)", iv)
	}
}

func TestValidate_S2_TrailingBytes(t *testing.T) {
	b := []byte{0xA0, 0x00}
	_, err := Validate(b, testLimits())
	if code := errCode(t, err); code != ErrTrailingBytes {
		t.Fatalf("got %v, want ErrTrailingBytes", code)
	}
	if cerr := err.(*Error); cerr.Offset != 1 {
		t.Fatalf("got offset %d, want 1", cerr.Offset)
	}
}

func TestValidate_S3_NonCanonicalMapOrder(t *testing.T) {
	b := []byte{0xA2, 0x61, 0x62, 0x00, 0x61, 0x61, 0x01}
	_, err := Validate(b, testLimits())
	if code := errCode(t, err); code != ErrNonCanonicalMapOrder {
		t.Fatalf("got %v, want ErrNonCanonicalMapOrder", code)
	}
	if cerr := err.(*Error); cerr.Offset != 4 {
		t.Fatalf("got offset %d, want 4", cerr.Offset)
	}
}

func TestValidate_S4_BignumInsideSafeRange(t *testing.T) {
	b := []byte{0xC2, 0x41, 0x01}
	_, err := Validate(b, testLimits())
	if code := errCode(t, err); code != ErrBignumMustBeOutsideSafeRange {
		t.Fatalf("got %v, want ErrBignumMustBeOutsideSafeRange", code)
	}
}

func TestValidate_S5_NegativeZero(t *testing.T) {
	b := []byte{0xFB, 0x80, 0, 0, 0, 0, 0, 0, 0}
	_, err := Validate(b, testLimits())
	if code := errCode(t, err); code != ErrNegativeZeroForbidden {
		t.Fatalf("got %v, want ErrNegativeZeroForbidden", code)
	}
}

func TestValidate_InvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		want ErrorCode
	}{
		{"indefinite array", []byte{0x9F, 0x01, 0xFF}, ErrIndefiniteLengthForbidden},
		{"non-minimal uint8 arg", []byte{0x18, 0x05}, ErrNonCanonicalEncoding},
		{"non-minimal uint16 arg", []byte{0x19, 0x00, 0xFF}, ErrNonCanonicalEncoding},
		{"reserved additional info 28", []byte{0x1C}, ErrReservedAdditionalInfo},
		{"map key not text", []byte{0xA1, 0x01, 0x01}, ErrMapKeyMustBeText},
		{"duplicate map key", []byte{0xA2, 0x61, 0x61, 0x00, 0x61, 0x61, 0x01}, ErrDuplicateMapKey},
		{"invalid utf8 text", []byte{0x61, 0xFF}, ErrUtf8Invalid},
		{"unsupported simple value", []byte{0xF8, 0x20}, ErrUnsupportedSimpleValue},
		{"non-canonical simple encoding", []byte{0xF8, 0x05}, ErrNonCanonicalEncoding},
		{"forbidden tag", []byte{0xC1, 0x00}, ErrForbiddenOrMalformedTag},
		{"non-canonical NaN", []byte{0xFB, 0x7F, 0xF8, 0, 0, 0, 0, 0, 1}, ErrNonCanonicalNaN},
		{"bignum leading zero", []byte{0xC2, 0x42, 0x00, 0x01}, ErrBignumNotCanonical},
		{"bignum empty magnitude", []byte{0xC2, 0x40}, ErrBignumNotCanonical},
		{"integer outside safe range major0", []byte{0x1B, 0x00, 0x20, 0, 0, 0, 0, 0, 0}, ErrIntegerOutsideSafeRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.b, testLimits())
			if code := errCode(t, err); code != tc.want {
				t.Fatalf("got %v, want %v", code, tc.want)
			}
		})
	}
}

func TestValidate_DepthLimit(t *testing.T) {
	depth := 3
	var b []byte
	for i := 0; i < depth; i++ {
		b = append(b, 0x81) // array of 1 item
	}
	b = append(b, 0x00)

	limits := testLimits()
	limits.MaxDepth = depth - 1
	if _, err := Validate(b, limits); errCode(t, err) != ErrDepthLimitExceeded {
		t.Fatalf("expected ErrDepthLimitExceeded at MaxDepth=%d", limits.MaxDepth)
	}

	limits.MaxDepth = depth
	if _, err := Validate(b, limits); err != nil {
		t.Fatalf("expected success at MaxDepth=%d: %v", limits.MaxDepth, err)
	}
}

func TestValidate_ArrayLenLimit(t *testing.T) {
	b := mustEncode(t, func(e *Encoder) error {
		return e.Array(3, func(a *ArrayEmitter) error {
			for i := 0; i < 3; i++ {
				i := i
				if err := a.Item(func(e *Encoder) error { e.Int(int64(i)); return nil }); err != nil {
					return err
				}
			}
			return nil
		})
	})
	limits := testLimits()
	limits.MaxArrayLen = 2
	if _, err := Validate(b, limits); errCode(t, err) != ErrArrayLenLimitExceeded {
		t.Fatalf("expected ErrArrayLenLimitExceeded")
	}
}

func TestValidate_MapLenLimit(t *testing.T) {
	b := buildABCMap(t).Bytes()
	limits := testLimits()
	limits.MaxMapLen = 2
	if _, err := Validate(b, limits); errCode(t, err) != ErrMapLenLimitExceeded {
		t.Fatalf("expected ErrMapLenLimitExceeded")
	}
}

func TestValidate_BytesLenLimit(t *testing.T) {
	b := mustEncode(t, func(e *Encoder) error { e.Bytes([]byte{1, 2, 3, 4, 5}); return nil })
	limits := testLimits()
	limits.MaxBytesLen = 3
	if _, err := Validate(b, limits); errCode(t, err) != ErrBytesLenLimitExceeded {
		t.Fatalf("expected ErrBytesLenLimitExceeded")
	}
}

func TestValidate_TextLenLimit(t *testing.T) {
	b := mustEncode(t, func(e *Encoder) error { e.Text("hello world"); return nil })
	limits := testLimits()
	limits.MaxTextLen = 5
	if _, err := Validate(b, limits); errCode(t, err) != ErrTextLenLimitExceeded {
		t.Fatalf("expected ErrTextLenLimitExceeded")
	}
}

func TestValidate_TotalItemsLimit(t *testing.T) {
	b := buildIntArray(t, 1, 2, 3, 4, 5).Bytes()
	limits := testLimits()
	limits.MaxTotalItems = 3
	if _, err := Validate(b, limits); errCode(t, err) != ErrTotalItemsLimitExceeded {
		t.Fatalf("expected ErrTotalItemsLimitExceeded")
	}
}

func TestValidate_MessageLenLimit(t *testing.T) {
	b := buildABCMap(t).Bytes()
	limits := testLimits()
	limits.MaxInputBytes = len(b) - 1
	if _, err := Validate(b, limits); errCode(t, err) != ErrMessageLenLimitExceeded {
		t.Fatalf("expected ErrMessageLenLimitExceeded")
	}
}

func TestValidate_S6_ScenarioViaEditor(t *testing.T) {
	base := mustEncode(t, func(e *Encoder) error {
		return e.Map(1, func(m *MapEmitter) error {
			return m.Entry("b", func(e *Encoder) error { e.Int(1); return nil })
		})
	})
	ref, err := Validate(base, testLimits())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ed := NewEditor(ref.Root())
	if err := ed.Insert([]PathElem{Key("a")}, func(e *Encoder) error { e.Int(0); return nil }); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := ed.Insert([]PathElem{Key("c")}, func(e *Encoder) error { e.Int(2); return nil }); err != nil {
		t.Fatalf("insert c: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []byte{0xA3, 0x61, 0x61, 0x00, 0x61, 0x62, 0x01, 0x61, 0x63, 0x02}
	if !bytesEqual(out.Bytes(), want) {
		t.Fatalf("got %x want %x", out.Bytes(), want)
	}
}

func TestValidate_S7_BignumEncoding(t *testing.T) {
	got := mustEncode(t, func(e *Encoder) error { e.Int(1 << 53); return nil })
	want := []byte{0xC2, 0x47, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytesEqual(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
}
