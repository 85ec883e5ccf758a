package cbor

// decode.go builds owned Value trees from validated bytes without
// recursing, and offers a small set of typed helpers for code that would
// rather decode straight into Go structures than walk a ValueRef by hand.

// Unmarshaler is implemented by a type that knows how to populate itself
// from a borrowed ValueRef. DecodeInto calls it once, at the root.
type Unmarshaler interface {
	UnmarshalCBORValue(ValueRef) error
}

// DecodeInto decodes canon's root value into target.
func DecodeInto(canon CanonicalRef, target Unmarshaler) error {
	return target.UnmarshalCBORValue(canon.Root())
}

// DecodeOptional decodes v as *T: CBOR null maps to a nil pointer (I11's
// three-state convention — absent key, null, and a present value are all
// distinguishable), anything else is decoded with decode and returned
// through a fresh pointer.
func DecodeOptional[T any](v ValueRef, decode func(ValueRef) (T, error)) (*T, error) {
	if v.AsNull() {
		return nil, nil
	}
	val, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

// DecodeArray decodes v as an array, applying decodeItem to each element in
// order.
func DecodeArray[T any](v ValueRef, decodeItem func(ValueRef) (T, error)) ([]T, error) {
	arr, err := v.Array()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, arr.Len())
	it := arr.Iter()
	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		val, err := decodeItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
}

// DecodeMap decodes v as a map, applying decodeItem to each entry's value.
// The result preserves no ordering information; use MapRef.Iter directly
// when canonical order matters to the caller.
func DecodeMap[T any](v ValueRef, decodeItem func(ValueRef) (T, error)) (map[string]T, error) {
	mp, err := v.Map()
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, mp.Len())
	it := mp.Iter()
	for {
		k, val, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		decoded, err := decodeItem(val)
		if err != nil {
			return nil, err
		}
		out[k] = decoded
	}
}

// treeFrameKind distinguishes the two container shapes decodeValueTree
// accumulates into.
type treeFrameKind uint8

const (
	treeFrameArray treeFrameKind = iota
	treeFrameMap
)

type treeFrame struct {
	kind treeFrameKind
	want int

	items []Value

	keys         []string
	values       []Value
	expectingKey bool
	pendingKey   string
}

// decodeValueTree walks v's bytes once, without recursion, building an
// owned Value tree. The frame stack mirrors scan.go's: a container pushes
// a frame that accumulates its children; the frame is popped and folded
// into its parent's accumulator as soon as it is complete. Since v has
// already passed Validate (directly or transitively, as any ValueRef
// borrowed from a CanonicalRef has), every header here is trusted.
func decodeValueTree(v ValueRef) (Value, error) {
	// Stack of containers still being filled. The root is represented
	// implicitly: once the stack is empty after popping, the just-built
	// value is the answer.
	var stack []*treeFrame

	attach := func(val Value) {
		top := stack[len(stack)-1]
		if top.kind == treeFrameArray {
			top.items = append(top.items, val)
			return
		}
		top.keys = append(top.keys, top.pendingKey)
		top.values = append(top.values, val)
		top.expectingKey = true
	}

	data := v.data
	pos := v.start

	// decodeLeafOrOpen decodes exactly one non-container value at pos and
	// returns it along with the offset just past it. For a container it
	// instead returns a new frame, which the caller pushes onto stack for
	// the outer loop to fill.
	decodeLeafOrOpen := func(pos int) (val Value, next int, opened *treeFrame, err error) {
		c := newCursor(data, pos)
		off := pos
		ib, err := c.readByte()
		if err != nil {
			return Value{}, 0, nil, err
		}
		major := majorOf(ib)
		ai := addInfoOf(ib)
		switch major {
		case majorUint:
			u, err := readUintArg(&c, ai, off, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			return IntValue(int64(u)), c.position(), nil, nil
		case majorNegInt:
			n, err := readUintArg(&c, ai, off, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			return IntValue(-1 - int64(n)), c.position(), nil, nil
		case majorBytes:
			n, err := readLen(&c, ai, off, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			b, err := c.readExact(n)
			if err != nil {
				return Value{}, 0, nil, err
			}
			return BytesValue(b), c.position(), nil, nil
		case majorText:
			n, err := readLen(&c, ai, off, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			s, err := parseTextBody(&c, nil, off, n, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			return TextValue(string([]byte(s))), c.position(), nil, nil
		case majorTag:
			negative, mag, err := parseBignum(&c, nil, off, ai, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			big, err := NewBigInt(negative, mag)
			if err != nil {
				return Value{}, 0, nil, err
			}
			return BignumValue(big), c.position(), nil, nil
		case majorSimple:
			switch ai {
			case simpleFalse:
				return BoolValue(false), c.position(), nil, nil
			case simpleTrue:
				return BoolValue(true), c.position(), nil, nil
			case simpleNull:
				return NullValue(), c.position(), nil, nil
			case simpleFloat64:
				bits, err := c.readUint64BE()
				if err != nil {
					return Value{}, 0, nil, err
				}
				return Value{kind: KindFloat, floatVal: bits}, c.position(), nil, nil
			}
			return Value{}, 0, nil, newErr(ErrMalformedCanonical, off)
		case majorArray:
			n, err := readLen(&c, ai, off, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			f := &treeFrame{kind: treeFrameArray, want: n, items: make([]Value, 0, n)}
			return Value{}, c.position(), f, nil
		case majorMap:
			n, err := readLen(&c, ai, off, false)
			if err != nil {
				return Value{}, 0, nil, err
			}
			f := &treeFrame{
				kind:         treeFrameMap,
				want:         n,
				keys:         make([]string, 0, n),
				values:       make([]Value, 0, n),
				expectingKey: true,
			}
			return Value{}, c.position(), f, nil
		default:
			return Value{}, 0, nil, newErr(ErrMalformedCanonical, off)
		}
	}

	val, next, frame, err := decodeLeafOrOpen(pos)
	if err != nil {
		return Value{}, err
	}
	if frame == nil {
		return val, nil
	}
	stack = append(stack, frame)
	pos = next

	for {
		top := stack[len(stack)-1]

		if top.kind == treeFrameArray {
			if len(top.items) == top.want {
				stack = stack[:len(stack)-1]
				finished := ArrayValue(top.items)
				if len(stack) == 0 {
					return finished, nil
				}
				attach(finished)
				continue
			}
		} else {
			if len(top.values) == top.want && top.expectingKey {
				stack = stack[:len(stack)-1]
				m := Map{keys: top.keys, values: top.values}
				finished := MapValue(m)
				if len(stack) == 0 {
					return finished, nil
				}
				attach(finished)
				continue
			}
		}

		if top.kind == treeFrameMap && top.expectingKey {
			c := newCursor(data, pos)
			off := pos
			ib, err := c.readByte()
			if err != nil {
				return Value{}, err
			}
			if majorOf(ib) != majorText {
				return Value{}, newErr(ErrMapKeyMustBeText, off)
			}
			n, err := readLen(&c, addInfoOf(ib), off, false)
			if err != nil {
				return Value{}, err
			}
			key, err := parseTextBody(&c, nil, off, n, false)
			if err != nil {
				return Value{}, err
			}
			top.pendingKey = string([]byte(key))
			top.expectingKey = false
			pos = c.position()
			continue
		}

		v, n, opened, err := decodeLeafOrOpen(pos)
		if err != nil {
			return Value{}, err
		}
		pos = n
		if opened != nil {
			stack = append(stack, opened)
			continue
		}
		attach(v)
	}
}
