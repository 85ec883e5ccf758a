package cbor

import "testing"

func TestEditor_SetReplacesExisting(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.Set([]PathElem{Key("b")}, func(e *Encoder) error { e.Int(99); return nil }); err != nil {
		t.Fatalf("Set: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	mp, _ := out.Root().Map()
	v, _, _ := mp.Get("b")
	iv, _ := v.AsInteger()
	if iv.Safe != 99 {
		t.Fatalf("got %d", iv.Safe)
	}
	// Untouched siblings are preserved verbatim.
	va, _, _ := mp.Get("a")
	ivA, _ := va.AsInteger()
	if ivA.Safe != 1 {
		t.Fatalf("a changed: %d", ivA.Safe)
	}
}

func TestEditor_InsertConflict(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.Insert([]PathElem{Key("b")}, func(e *Encoder) error { e.Int(0); return nil }); err != nil {
		t.Fatalf("Insert registration: %v", err)
	}
	_, err := ed.Apply()
	if code := errCode(t, err); code != ErrPatchConflict {
		t.Fatalf("got %v, want ErrPatchConflict", code)
	}
}

func TestEditor_ReplaceMissing(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.Replace([]PathElem{Key("z")}, func(e *Encoder) error { e.Int(0); return nil }); err != nil {
		t.Fatalf("Replace registration: %v", err)
	}
	_, err := ed.Apply()
	if code := errCode(t, err); code != ErrMissingKey {
		t.Fatalf("got %v, want ErrMissingKey", code)
	}
}

func TestEditor_Delete(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.Delete([]PathElem{Key("a")}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	mp, _ := out.Root().Map()
	if mp.Len() != 2 {
		t.Fatalf("len = %d", mp.Len())
	}
	if _, ok, _ := mp.Get("a"); ok {
		t.Fatalf("a should be deleted")
	}
}

func TestEditor_DeleteMissing_Fails(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.Delete([]PathElem{Key("z")}); err != nil {
		t.Fatalf("Delete registration: %v", err)
	}
	_, err := ed.Apply()
	if code := errCode(t, err); code != ErrMissingKey {
		t.Fatalf("got %v, want ErrMissingKey", code)
	}
}

func TestEditor_DeleteIfPresent_Missing_NoOp(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.DeleteIfPresent([]PathElem{Key("z")}); err != nil {
		t.Fatalf("DeleteIfPresent: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.Equal(ref) {
		t.Fatalf("expected unchanged output:\n got %x\nwant %x", out.Bytes(), ref.Bytes())
	}
}

func TestEditor_DeleteIfPresent_ArrayOutOfBounds(t *testing.T) {
	ref := buildIntArray(t, 1, 2)
	ed := NewEditor(ref.Root())
	if err := ed.DeleteIfPresent([]PathElem{Index(5)}); err != nil {
		t.Fatalf("DeleteIfPresent: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.Equal(ref) {
		t.Fatalf("expected unchanged output")
	}
}

func TestEditor_Delete_ArrayIndexOutOfBounds(t *testing.T) {
	ref := buildIntArray(t, 1, 2)
	ed := NewEditor(ref.Root())
	if err := ed.Delete([]PathElem{Index(5)}); err != nil {
		t.Fatalf("Delete registration: %v", err)
	}
	_, err := ed.Apply()
	if code := errCode(t, err); code != ErrIndexOutOfBounds {
		t.Fatalf("got %v, want ErrIndexOutOfBounds", code)
	}
}

func TestEditor_InsertArrayElement(t *testing.T) {
	ref := buildIntArray(t, 1, 2, 3)
	ed := NewEditor(ref.Root())
	if err := ed.Insert([]PathElem{Index(1)}, func(e *Encoder) error { e.Int(99); return nil }); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := arrayInts(t, out)
	want := []int64{1, 99, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestEditor_CreateMissingMaps(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	ed.Options().CreateMissingMaps = true
	if err := ed.Set([]PathElem{Key("nested"), Key("x")}, func(e *Encoder) error { e.Int(7); return nil }); err != nil {
		t.Fatalf("Set: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v, ok, err := out.Root().At([]PathElem{Key("nested"), Key("x")})
	if err != nil || !ok {
		t.Fatalf("At: ok=%v err=%v", ok, err)
	}
	iv, _ := v.AsInteger()
	if iv.Safe != 7 {
		t.Fatalf("got %d", iv.Safe)
	}
}

func TestEditor_CreateMissingMaps_DisabledFails(t *testing.T) {
	ref := buildABCMap(t)
	ed := NewEditor(ref.Root())
	if err := ed.Set([]PathElem{Key("nested"), Key("x")}, func(e *Encoder) error { e.Int(7); return nil }); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, err := ed.Apply()
	if code := errCode(t, err); code != ErrMissingKey {
		t.Fatalf("got %v, want ErrMissingKey", code)
	}
}

func TestEditor_Splice_ReplaceMiddle(t *testing.T) {
	ref := buildIntArray(t, 10, 20, 30, 40)
	ed := NewEditor(ref.Root())
	b, err := ed.Splice(nil, AtIndex(1), 2)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	b.Insert(func(e *Encoder) error { e.Int(99); return nil })
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := arrayInts(t, out)
	want := []int64{10, 99, 40}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestEditor_Splice_AppendAtEnd(t *testing.T) {
	ref := buildIntArray(t, 1, 2)
	ed := NewEditor(ref.Root())
	b, err := ed.Splice(nil, AtEnd(), 0)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	b.Insert(func(e *Encoder) error { e.Int(3); return nil })
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := arrayInts(t, out)
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestEditor_Splice_AtEndForbidsDelete(t *testing.T) {
	ed := NewEditor(ValueRef{})
	_, err := ed.Splice(nil, AtEnd(), 1)
	if code := errCode(t, err); code != ErrInvalidQuery {
		t.Fatalf("got %v, want ErrInvalidQuery", code)
	}
}

func TestEditor_Splice_OverlapConflict(t *testing.T) {
	ref := buildIntArray(t, 1, 2, 3, 4)
	ed := NewEditor(ref.Root())
	b1, err := ed.Splice(nil, AtIndex(0), 2)
	if err != nil {
		t.Fatalf("first splice: %v", err)
	}
	if err := b1.Finish(); err != nil {
		t.Fatalf("finish first: %v", err)
	}
	b2, err := ed.Splice(nil, AtIndex(1), 1)
	if err != nil {
		t.Fatalf("second splice: %v", err)
	}
	if err := b2.Finish(); err == nil {
		t.Fatalf("expected overlap conflict")
	}
}

func TestEditor_NestedField(t *testing.T) {
	ref := buildPersonBytes(t)
	ed := NewEditor(ref.Root())
	if err := ed.Set([]PathElem{Key("tags"), Index(0)}, func(e *Encoder) error { e.Text("z"); return nil }); err != nil {
		t.Fatalf("Set: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v, ok, err := out.Root().At([]PathElem{Key("tags"), Index(0)})
	if err != nil || !ok {
		t.Fatalf("At: ok=%v err=%v", ok, err)
	}
	s, _ := v.AsText()
	if s != "z" {
		t.Fatalf("got %q", s)
	}
	// The sibling "name" key is untouched.
	name, _, _ := out.Root().At([]PathElem{Key("name")})
	nameStr, _ := name.AsText()
	if nameStr != "Ada" {
		t.Fatalf("name changed: %q", nameStr)
	}
}
