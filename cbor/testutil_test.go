package cbor

import (
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func testLimits() DecodeLimits {
	return ForBytes(1 << 20)
}

func mustEncode(t *testing.T, f func(*Encoder) error) []byte {
	t.Helper()
	enc := NewEncoder()
	if err := f(enc); err != nil {
		t.Fatalf("encode error: %v", err)
	}
	ref, err := enc.IntoCanonical()
	if err != nil {
		t.Fatalf("IntoCanonical error: %v", err)
	}
	return ref.Bytes()
}

func mustEncodeRef(t *testing.T, f func(*Encoder) error) CanonicalRef {
	t.Helper()
	b := mustEncode(t, f)
	ref, err := Validate(b, testLimits())
	if err != nil {
		t.Fatalf("Validate(encoded) error: %v", err)
	}
	return ref
}

func errCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	code, ok := CodeOf(err)
	if !ok {
		t.Fatalf("error %v is not a *cbor.Error", err)
	}
	return code
}

func buildPersonBytes(t *testing.T) CanonicalRef {
	return mustEncodeRef(t, func(e *Encoder) error {
		return e.Map(3, func(m *MapEmitter) error {
			if err := m.Entry("age", func(e *Encoder) error { e.Int(30); return nil }); err != nil {
				return err
			}
			if err := m.Entry("name", func(e *Encoder) error { e.Text("Ada"); return nil }); err != nil {
				return err
			}
			return m.Entry("tags", func(e *Encoder) error {
				return e.Array(2, func(a *ArrayEmitter) error {
					if err := a.Item(func(e *Encoder) error { e.Text("x"); return nil }); err != nil {
						return err
					}
					return a.Item(func(e *Encoder) error { e.Text("y"); return nil })
				})
			})
		})
	})
}

func buildABCMap(t *testing.T) CanonicalRef {
	return mustEncodeRef(t, func(e *Encoder) error {
		return e.Map(3, func(m *MapEmitter) error {
			for _, kv := range []struct {
				k string
				v int64
			}{{"a", 1}, {"b", 2}, {"c", 3}} {
				kv := kv
				if err := m.Entry(kv.k, func(e *Encoder) error { e.Int(kv.v); return nil }); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func buildIntArray(t *testing.T, vals ...int64) CanonicalRef {
	return mustEncodeRef(t, func(e *Encoder) error {
		return e.Array(len(vals), func(a *ArrayEmitter) error {
			for _, v := range vals {
				v := v
				if err := a.Item(func(e *Encoder) error { e.Int(v); return nil }); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func arrayInts(t *testing.T, ref CanonicalRef) []int64 {
	t.Helper()
	arr, err := ref.Root().Array()
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	out := make([]int64, 0, arr.Len())
	it := arr.Iter()
	for {
		v, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		iv, err := v.AsInteger()
		if err != nil {
			t.Fatalf("AsInteger: %v", err)
		}
		out = append(out, iv.Safe)
	}
	return out
}
