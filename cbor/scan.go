package cbor

// scan.go implements the single engine that walks exactly one CBOR data
// item without recursing: both Validate (checked=true) and the query
// engine's internal "skip a value I don't care about" step (checked=false)
// drive it. Using an explicit frame stack instead of a recursive walk
// means stack depth is bounded by DecodeLimits.MaxDepth, not by whatever
// nesting an adversarial input happens to contain.

type frameKind uint8

const (
	frameRoot frameKind = iota
	frameArray
	frameMap
)

type frame struct {
	kind frameKind

	remaining      int // frameRoot / frameArray: items left to read
	remainingPairs int // frameMap: key/value pairs left to read
	expectingKey   bool

	hasPrevKey             bool
	prevKeyStart, prevKeyEnd int
}

func (f frame) isContainer() bool { return f.kind == frameArray || f.kind == frameMap }

func (f frame) isDone() bool {
	if f.kind == frameMap {
		return f.remainingPairs == 0 && f.expectingKey
	}
	return f.remaining == 0
}

// scanStack is a frame stack pre-sized to avoid growing during a normal
// scan. Its starting capacity covers DefaultMaxDepth+2 nested containers,
// or MaxDepth+2 when a caller raised DecodeLimits.MaxDepth above the
// default; a scan with nil limits grows it past DefaultMaxDepth+2 only for
// deeper input.
type scanStack struct {
	items []frame
}

func newScanStack(limits *DecodeLimits) scanStack {
	capN := DefaultMaxDepth + 2
	if limits != nil && limits.MaxDepth+2 > capN {
		capN = limits.MaxDepth + 2
	}
	return scanStack{items: make([]frame, 0, capN)}
}

func (s *scanStack) push(f frame) { s.items = append(s.items, f) }

func (s *scanStack) pop() (frame, bool) {
	n := len(s.items)
	if n == 0 {
		return frame{}, false
	}
	f := s.items[n-1]
	s.items = s.items[:n-1]
	return f, true
}

func (s *scanStack) peek() (*frame, bool) {
	n := len(s.items)
	if n == 0 {
		return nil, false
	}
	return &s.items[n-1], true
}

func (s *scanStack) empty() bool { return len(s.items) == 0 }

func checkMapKeyOrder(data []byte, f *frame, keyStart, keyEnd int) error {
	if f.hasPrevKey {
		prev := data[f.prevKeyStart:f.prevKeyEnd]
		curr := data[keyStart:keyEnd]
		if bytesEqual(prev, curr) {
			return newErr(ErrDuplicateMapKey, keyStart)
		}
		if !isStrictlyIncreasingEncoded(prev, curr) {
			return newErr(ErrNonCanonicalMapOrder, keyStart)
		}
	}
	f.hasPrevKey = true
	f.prevKeyStart, f.prevKeyEnd = keyStart, keyEnd
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bumpItems(limits *DecodeLimits, itemsSeen *int, add, off int) error {
	if limits == nil {
		return nil
	}
	*itemsSeen += add
	if *itemsSeen > limits.MaxTotalItems {
		return newErr(ErrTotalItemsLimitExceeded, off)
	}
	return nil
}

func ensureDepth(limits *DecodeLimits, nextDepth, off int) error {
	if limits == nil {
		return nil
	}
	if nextDepth > limits.MaxDepth {
		return newErr(ErrDepthLimitExceeded, off)
	}
	return nil
}

func consumeValue(f *frame, off int) error {
	switch f.kind {
	case frameRoot, frameArray:
		if f.remaining == 0 {
			return newErr(ErrMalformedCanonical, off)
		}
		f.remaining--
	case frameMap:
		if f.expectingKey {
			return newErr(ErrMalformedCanonical, off)
		}
		if f.remainingPairs == 0 {
			return newErr(ErrMalformedCanonical, off)
		}
		f.remainingPairs--
		f.expectingKey = true
	}
	return nil
}

// scanOne walks exactly one data item starting at start, returning the
// offset just past it and the number of items consumed (for the caller's
// running MaxTotalItems budget). checked selects between I3/I4/I6/I7/I8/I9
// enforcement (Validate) and a trusting walk that only needs to find where
// the item ends (the query engine skipping an uninteresting value);
// indefinite lengths, non-text map keys and unsupported simple values are
// rejected either way.
// limits may be nil, in which case no resource limit is enforced.
func scanOne(data []byte, start int, checked bool, limits *DecodeLimits) (end int, itemsSeen int, err error) {
	c := newCursor(data, start)
	stack := newScanStack(limits)
	stack.push(frame{kind: frameRoot, remaining: 1})
	localDepth := 0

	for {
		for {
			f, ok := stack.peek()
			if !ok {
				return c.position(), itemsSeen, nil
			}
			if !f.isDone() {
				break
			}
			popped, _ := stack.pop()
			if popped.isContainer() {
				if localDepth > 0 {
					localDepth--
				}
			}
			if stack.empty() {
				return c.position(), itemsSeen, nil
			}
		}

		f, _ := stack.peek()
		if f.kind == frameMap && f.expectingKey {
			keyStart := c.position()
			ib, err := c.readByte()
			if err != nil {
				return 0, 0, err
			}
			if majorOf(ib) != majorText {
				return 0, 0, newErr(ErrMapKeyMustBeText, keyStart)
			}
			n, err := readLen(&c, addInfoOf(ib), keyStart, checked)
			if err != nil {
				return 0, 0, err
			}
			if _, err := parseTextBody(&c, limits, keyStart, n, checked); err != nil {
				return 0, 0, err
			}
			keyEnd := c.position()

			if checked {
				if err := checkMapKeyOrder(data, f, keyStart, keyEnd); err != nil {
					return 0, 0, err
				}
			}
			f.expectingKey = false
			continue
		}

		off := c.position()
		ib, err := c.readByte()
		if err != nil {
			return 0, 0, err
		}
		major := majorOf(ib)
		ai := addInfoOf(ib)

		var pushFrame *frame

		switch major {
		case majorUint:
			v, err := readUintArg(&c, ai, off, checked)
			if err != nil {
				return 0, 0, err
			}
			if checked && v > MaxSafeInteger {
				return 0, 0, newErr(ErrIntegerOutsideSafeRange, off)
			}
		case majorNegInt:
			n, err := readUintArg(&c, ai, off, checked)
			if err != nil {
				return 0, 0, err
			}
			if checked && n >= MaxSafeInteger {
				return 0, 0, newErr(ErrIntegerOutsideSafeRange, off)
			}
		case majorBytes:
			n, err := readLen(&c, ai, off, checked)
			if err != nil {
				return 0, 0, err
			}
			if limits != nil && n > limits.MaxBytesLen {
				return 0, 0, newErr(ErrBytesLenLimitExceeded, off)
			}
			if _, err := c.readExact(n); err != nil {
				return 0, 0, err
			}
		case majorText:
			n, err := readLen(&c, ai, off, checked)
			if err != nil {
				return 0, 0, err
			}
			if _, err := parseTextBody(&c, limits, off, n, checked); err != nil {
				return 0, 0, err
			}
		case majorArray:
			n, err := readLen(&c, ai, off, checked)
			if err != nil {
				return 0, 0, err
			}
			if limits != nil && n > limits.MaxArrayLen {
				return 0, 0, newErr(ErrArrayLenLimitExceeded, off)
			}
			if err := bumpItems(limits, &itemsSeen, n, off); err != nil {
				return 0, 0, err
			}
			if err := ensureDepth(limits, localDepth+1, off); err != nil {
				return 0, 0, err
			}
			if n > 0 {
				pushFrame = &frame{kind: frameArray, remaining: n}
			}
		case majorMap:
			n, err := readLen(&c, ai, off, checked)
			if err != nil {
				return 0, 0, err
			}
			if limits != nil && n > limits.MaxMapLen {
				return 0, 0, newErr(ErrMapLenLimitExceeded, off)
			}
			if err := bumpItems(limits, &itemsSeen, n*2, off); err != nil {
				return 0, 0, err
			}
			if err := ensureDepth(limits, localDepth+1, off); err != nil {
				return 0, 0, err
			}
			if n > 0 {
				pushFrame = &frame{kind: frameMap, remainingPairs: n, expectingKey: true}
			}
		case majorTag:
			if _, _, err := parseBignum(&c, limits, off, ai, checked); err != nil {
				return 0, 0, err
			}
		case majorSimple:
			switch {
			case ai >= simpleFalse && ai <= simpleNull:
				// false / true / null: no payload.
			case ai == simpleFloat64:
				bits, err := c.readUint64BE()
				if err != nil {
					return 0, 0, err
				}
				if checked {
					if code := validateFloatBits(bits); code != 0 {
						return 0, 0, newErr(code, off)
					}
				}
			case ai == addInfoUint8:
				simple, err := c.readByte()
				if err != nil {
					return 0, 0, err
				}
				if simple < 24 {
					return 0, 0, newErr(ErrNonCanonicalEncoding, off)
				}
				return 0, 0, newErr(ErrUnsupportedSimpleValue, off)
			case ai >= 28 && ai <= 30:
				return 0, 0, newErr(ErrReservedAdditionalInfo, off)
			default:
				return 0, 0, newErr(ErrUnsupportedSimpleValue, off)
			}
		default:
			return 0, 0, newErr(ErrMalformedCanonical, off)
		}

		top, ok := stack.peek()
		if !ok {
			return 0, 0, newErr(ErrMalformedCanonical, c.position())
		}
		if err := consumeValue(top, off); err != nil {
			return 0, 0, err
		}

		if pushFrame != nil {
			stack.push(*pushFrame)
			localDepth++
		}
	}
}
