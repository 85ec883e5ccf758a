package cbor

import "testing"

func TestDiag_PersonMap(t *testing.T) {
	ref := buildPersonBytes(t)
	s, err := ref.Diagnostic()
	if err != nil {
		t.Fatalf("Diagnostic: %v", err)
	}
	want := `{"age": 30, "name": "Ada", "tags": ["x", "y"]}`
	if s != want {
		t.Fatalf("got %q want %q", s, want)
	}
}

func TestDiag_Bignum(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { e.Int(1 << 53); return nil })
	s, err := ref.Diagnostic()
	if err != nil {
		t.Fatalf("Diagnostic: %v", err)
	}
	want := `2(h'20000000000000')`
	if s != want {
		t.Fatalf("got %q want %q", s, want)
	}
}

func TestDiag_NegativeBignum(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { e.Int(-(1 << 53)); return nil })
	s, err := ref.Diagnostic()
	if err != nil {
		t.Fatalf("Diagnostic: %v", err)
	}
	want := `3(h'1fffffffffffff')`
	if s != want {
		t.Fatalf("got %q want %q", s, want)
	}
}

func TestDiag_Bytes(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { e.Bytes([]byte{0xde, 0xad}); return nil })
	s, err := ref.Diagnostic()
	if err != nil {
		t.Fatalf("Diagnostic: %v", err)
	}
	if s != `h'dead'` {
		t.Fatalf("got %q", s)
	}
}

func TestDiag_BoolNull(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { e.Bool(true); return nil })
	s, _ := ref.Diagnostic()
	if s != "true" {
		t.Fatalf("got %q", s)
	}

	ref = mustEncodeRef(t, func(e *Encoder) error { e.Null(); return nil })
	s, _ = ref.Diagnostic()
	if s != "null" {
		t.Fatalf("got %q", s)
	}
}

func TestDiag_Float(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { return e.Float64(1.5) })
	s, err := ref.Diagnostic()
	if err != nil {
		t.Fatalf("Diagnostic: %v", err)
	}
	if s != "1.5" {
		t.Fatalf("got %q", s)
	}
}

func TestDiag_EmptyContainers(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error {
		return e.Array(0, func(a *ArrayEmitter) error { return nil })
	})
	s, _ := ref.Diagnostic()
	if s != "[]" {
		t.Fatalf("got %q", s)
	}

	ref = mustEncodeRef(t, func(e *Encoder) error {
		return e.Map(0, func(m *MapEmitter) error { return nil })
	})
	s, _ = ref.Diagnostic()
	if s != "{}" {
		t.Fatalf("got %q", s)
	}
}
