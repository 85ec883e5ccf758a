package cbor

import "testing"

type person struct {
	age  int64
	name string
	tags []string
}

func (p *person) UnmarshalCBORValue(v ValueRef) error {
	mp, err := v.Map()
	if err != nil {
		return err
	}
	age, ok, err := mp.Get("age")
	if err != nil {
		return err
	}
	if ok {
		iv, err := age.AsInteger()
		if err != nil {
			return err
		}
		p.age = iv.Safe
	}
	name, ok, err := mp.Get("name")
	if err != nil {
		return err
	}
	if ok {
		p.name, err = name.AsText()
		if err != nil {
			return err
		}
	}
	tags, ok, err := mp.Get("tags")
	if err != nil {
		return err
	}
	if ok {
		p.tags, err = DecodeArray(tags, func(item ValueRef) (string, error) {
			return item.AsText()
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func TestDecodeInto(t *testing.T) {
	ref := buildPersonBytes(t)
	var p person
	if err := DecodeInto(ref, &p); err != nil {
		t.Fatalf("DecodeInto: %v", err)
	}
	if p.age != 30 || p.name != "Ada" || len(p.tags) != 2 || p.tags[0] != "x" || p.tags[1] != "y" {
		t.Fatalf("got %+v", p)
	}
}

func TestDecodeMap(t *testing.T) {
	ref := buildABCMap(t)
	out, err := DecodeMap(ref.Root(), func(v ValueRef) (int64, error) {
		iv, err := v.AsInteger()
		if err != nil {
			return 0, err
		}
		return iv.Safe, nil
	})
	if err != nil {
		t.Fatalf("DecodeMap: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 || out["c"] != 3 {
		t.Fatalf("got %v", out)
	}
}

func TestDecodeOptional_Null(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { e.Null(); return nil })
	got, err := DecodeOptional(ref.Root(), func(v ValueRef) (int64, error) {
		iv, err := v.AsInteger()
		return iv.Safe, err
	})
	if err != nil {
		t.Fatalf("DecodeOptional: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}
}

func TestDecodeOptional_Present(t *testing.T) {
	ref := mustEncodeRef(t, func(e *Encoder) error { e.Int(5); return nil })
	got, err := DecodeOptional(ref.Root(), func(v ValueRef) (int64, error) {
		iv, err := v.AsInteger()
		return iv.Safe, err
	})
	if err != nil {
		t.Fatalf("DecodeOptional: %v", err)
	}
	if got == nil || *got != 5 {
		t.Fatalf("got %v", got)
	}
}

func TestValue_ToValue_NestedArrayAndMap(t *testing.T) {
	ref := buildPersonBytes(t)
	v, err := ref.Root().ToValue()
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	mp, err := v.AsMap()
	if err != nil {
		t.Fatalf("AsMap: %v", err)
	}
	tagsVal, ok := mp.Get("tags")
	if !ok {
		t.Fatalf("tags missing")
	}
	arr, err := tagsVal.AsArray()
	if err != nil {
		t.Fatalf("AsArray: %v", err)
	}
	if len(arr) != 2 {
		t.Fatalf("got %d items", len(arr))
	}
	s0, _ := arr[0].AsText()
	if s0 != "x" {
		t.Fatalf("got %q", s0)
	}
}
