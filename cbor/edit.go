package cbor

import "sort"

// edit.go applies a batch of path-addressed edits to a validated byte
// range in one pass. Edits are first compiled into a node tree (so
// conflicting edits are rejected before any bytes are touched), then
// Apply walks the original value once, merging the node tree's pending
// work against the original structure the same way the query engine
// merge-joins a sorted key list against a map (MapRef.GetMany): untouched
// subtrees are spliced through verbatim, touched ones are re-emitted.

// SetMode controls how a map-key set interacts with an existing entry.
type SetMode uint8

const (
	// ModeUpsert inserts or replaces the target key.
	ModeUpsert SetMode = iota
	// ModeInsertOnly fails with ErrPatchConflict if the key already exists.
	ModeInsertOnly
	// ModeReplaceOnly fails with ErrMissingKey if the key is absent.
	ModeReplaceOnly
)

// EditOptions controls editor behavior not implied by the edit operations
// themselves.
type EditOptions struct {
	// CreateMissingMaps allows a set nested under an absent map key to
	// create the intermediate map rather than failing with ErrMissingKey.
	CreateMissingMaps bool
}

type nodeKind uint8

const (
	nodeKindNone nodeKind = iota
	nodeKindMap
	nodeKindArray
)

type node struct {
	kind nodeKind

	hasTerminal  bool
	terminalDel  bool
	terminalSet  func(*Encoder) error
	terminalMode SetMode
	ifPresent    bool

	mapChildren map[string]*node
	splices     []*arraySplice
}

type spliceItem struct {
	fresh func(*Encoder) error
	child *node
}

type arraySplice struct {
	start       int
	atEnd       bool
	deleteCount int
	ifPresent   bool
	items       []spliceItem
}

func (n *node) isEmpty() bool {
	return !n.hasTerminal && len(n.mapChildren) == 0 && len(n.splices) == 0
}

// Editor accumulates a batch of edits against a validated root value and
// applies them in a single pass.
type Editor struct {
	root    ValueRef
	options EditOptions
	plan    node
}

// NewEditor returns an Editor over root. Options default to the zero
// value (CreateMissingMaps disabled).
func NewEditor(root ValueRef) *Editor {
	return &Editor{root: root}
}

// Options returns a pointer to the editor's options for in-place mutation.
func (ed *Editor) Options() *EditOptions { return &ed.options }

// descendTo walks every element of path except the last, creating
// intermediate nodes as needed, and returns the node the last path element
// should be applied to. An empty path returns the root node.
func (ed *Editor) descendTo(path []PathElem) (*node, error) {
	cur := &ed.plan
	if len(path) == 0 {
		return cur, nil
	}
	for _, pe := range path[:len(path)-1] {
		next, err := descendOne(cur, pe)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func descendOne(cur *node, pe PathElem) (*node, error) {
	if pe.isIndex {
		if cur.kind == nodeKindMap || cur.hasTerminal {
			return nil, encErr(ErrPatchConflict)
		}
		cur.kind = nodeKindArray
		for _, sp := range cur.splices {
			if sp.start == pe.index && sp.deleteCount == 1 && len(sp.items) == 1 && sp.items[0].child != nil {
				return sp.items[0].child, nil
			}
		}
		child := &node{}
		sp := &arraySplice{start: pe.index, deleteCount: 1, items: []spliceItem{{child: child}}}
		if err := insertSplice(cur, sp); err != nil {
			return nil, err
		}
		return child, nil
	}
	if cur.kind == nodeKindArray || cur.hasTerminal {
		return nil, encErr(ErrPatchConflict)
	}
	cur.kind = nodeKindMap
	if cur.mapChildren == nil {
		cur.mapChildren = map[string]*node{}
	}
	if child, ok := cur.mapChildren[pe.key]; ok {
		return child, nil
	}
	child := &node{}
	cur.mapChildren[pe.key] = child
	return child, nil
}

// insertSplice inserts sp into parent.splices in start order, rejecting any
// overlap with a neighboring splice as ErrPatchConflict. At most one
// at-end splice is permitted.
func insertSplice(parent *node, sp *arraySplice) error {
	if sp.atEnd {
		for _, existing := range parent.splices {
			if existing.atEnd {
				return encErr(ErrPatchConflict)
			}
		}
		parent.splices = append(parent.splices, sp)
		return nil
	}
	i := sort.Search(len(parent.splices), func(i int) bool {
		return parent.splices[i].atEnd || parent.splices[i].start >= sp.start
	})
	if i > 0 {
		prev := parent.splices[i-1]
		if !prev.atEnd && prev.start+prev.deleteCount > sp.start {
			return encErr(ErrPatchConflict)
		}
	}
	if i < len(parent.splices) {
		next := parent.splices[i]
		if !next.atEnd && sp.start+sp.deleteCount > next.start {
			return encErr(ErrPatchConflict)
		}
	}
	parent.splices = append(parent.splices, nil)
	copy(parent.splices[i+1:], parent.splices[i:])
	parent.splices[i] = sp
	return nil
}

func setTerminal(n *node, del bool, setFn func(*Encoder) error, mode SetMode, ifPresent bool) error {
	if !n.isEmpty() {
		return encErr(ErrPatchConflict)
	}
	n.hasTerminal = true
	n.terminalDel = del
	n.terminalSet = setFn
	n.terminalMode = mode
	n.ifPresent = ifPresent
	return nil
}

func lastElem(path []PathElem) (PathElem, error) {
	if len(path) == 0 {
		return PathElem{}, encErr(ErrInvalidQuery)
	}
	return path[len(path)-1], nil
}

// Set upserts path's target: a map key is inserted or replaced, an array
// index is replaced in place.
func (ed *Editor) Set(path []PathElem, value func(*Encoder) error) error {
	return ed.applyLeaf(path, ModeUpsert, value)
}

// Insert fails with ErrPatchConflict if the map key already exists, or
// inserts a new element before the given array index.
func (ed *Editor) Insert(path []PathElem, value func(*Encoder) error) error {
	last, err := lastElem(path)
	if err != nil {
		return err
	}
	if last.isIndex {
		parent, err := ed.descendTo(path)
		if err != nil {
			return err
		}
		if parent.kind == nodeKindMap || parent.hasTerminal {
			return encErr(ErrPatchConflict)
		}
		parent.kind = nodeKindArray
		sp := &arraySplice{start: last.index, deleteCount: 0, items: []spliceItem{{fresh: value}}}
		return insertSplice(parent, sp)
	}
	return ed.applyLeaf(path, ModeInsertOnly, value)
}

// Replace fails with ErrMissingKey if the map key is absent, or with
// ErrIndexOutOfBounds if the array index is out of range.
func (ed *Editor) Replace(path []PathElem, value func(*Encoder) error) error {
	return ed.applyLeaf(path, ModeReplaceOnly, value)
}

func (ed *Editor) applyLeaf(path []PathElem, mode SetMode, value func(*Encoder) error) error {
	last, err := lastElem(path)
	if err != nil {
		return err
	}
	parent, err := ed.descendTo(path)
	if err != nil {
		return err
	}
	if last.isIndex {
		if parent.kind == nodeKindMap || parent.hasTerminal {
			return encErr(ErrPatchConflict)
		}
		parent.kind = nodeKindArray
		sp := &arraySplice{start: last.index, deleteCount: 1, items: []spliceItem{{fresh: value}}}
		return insertSplice(parent, sp)
	}
	child, err := descendOne(parent, Key(last.key))
	if err != nil {
		return err
	}
	return setTerminal(child, false, value, mode, false)
}

// Delete removes path's target, failing with ErrMissingKey /
// ErrIndexOutOfBounds if it is absent.
func (ed *Editor) Delete(path []PathElem) error {
	return ed.applyDelete(path, false)
}

// DeleteIfPresent removes path's target if present, and is a no-op if it
// is absent.
func (ed *Editor) DeleteIfPresent(path []PathElem) error {
	return ed.applyDelete(path, true)
}

func (ed *Editor) applyDelete(path []PathElem, ifPresent bool) error {
	last, err := lastElem(path)
	if err != nil {
		return err
	}
	parent, err := ed.descendTo(path)
	if err != nil {
		return err
	}
	if last.isIndex {
		if parent.kind == nodeKindMap || parent.hasTerminal {
			return encErr(ErrPatchConflict)
		}
		parent.kind = nodeKindArray
		sp := &arraySplice{start: last.index, deleteCount: 1, ifPresent: ifPresent}
		return insertSplice(parent, sp)
	}
	child, err := descendOne(parent, Key(last.key))
	if err != nil {
		return err
	}
	return setTerminal(child, true, nil, ModeUpsert, ifPresent)
}

// ArrayPos selects where a splice acts: at a specific index, or at the
// end of the array.
type ArrayPos struct {
	atEnd bool
	index int
}

// AtIndex builds an ArrayPos targeting a specific index.
func AtIndex(i int) ArrayPos { return ArrayPos{index: i} }

// AtEnd builds an ArrayPos targeting the end of the array. A splice at
// AtEnd must not delete anything.
func AtEnd() ArrayPos { return ArrayPos{atEnd: true} }

// ArraySpliceBuilder accumulates the inserted items of one splice before
// committing it to the edit plan with Finish.
type ArraySpliceBuilder struct {
	ed    *Editor
	path  []PathElem
	pos   ArrayPos
	del   int
	fresh []func(*Encoder) error
}

// Splice begins a splice of the array at arrayPath: deleteCount contiguous
// elements starting at pos are deleted, then Insert calls append
// replacement elements. pos == AtEnd() forbids deleteCount != 0.
func (ed *Editor) Splice(arrayPath []PathElem, pos ArrayPos, deleteCount int) (*ArraySpliceBuilder, error) {
	if pos.atEnd && deleteCount != 0 {
		return nil, encErr(ErrInvalidQuery)
	}
	return &ArraySpliceBuilder{ed: ed, path: arrayPath, pos: pos, del: deleteCount}, nil
}

// Insert queues one replacement element.
func (b *ArraySpliceBuilder) Insert(value func(*Encoder) error) *ArraySpliceBuilder {
	b.fresh = append(b.fresh, value)
	return b
}

// Finish commits the accumulated splice to the edit plan.
func (b *ArraySpliceBuilder) Finish() error {
	parent := &b.ed.plan
	for _, pe := range b.path {
		next, err := descendOne(parent, pe)
		if err != nil {
			return err
		}
		parent = next
	}
	if parent.kind == nodeKindMap || parent.hasTerminal {
		return encErr(ErrPatchConflict)
	}
	parent.kind = nodeKindArray
	items := make([]spliceItem, len(b.fresh))
	for i, f := range b.fresh {
		items[i] = spliceItem{fresh: f}
	}
	sp := &arraySplice{start: b.pos.index, atEnd: b.pos.atEnd, deleteCount: b.del, items: items}
	return insertSplice(parent, sp)
}

// Apply runs the accumulated edits in a single pass and returns the
// resulting canonical bytes.
func (ed *Editor) Apply() (CanonicalRef, error) {
	enc := NewEncoder()
	if err := emitValue(enc, ed.root, &ed.plan, ed.options); err != nil {
		enc.Release()
		return CanonicalRef{}, err
	}
	return enc.IntoCanonical()
}

func emitValue(enc *Encoder, v ValueRef, n *node, opts EditOptions) error {
	if n.isEmpty() {
		enc.Raw(v.Bytes())
		return nil
	}
	if n.hasTerminal {
		if n.terminalDel {
			return encErr(ErrPatchConflict)
		}
		return n.terminalSet(enc)
	}
	switch n.kind {
	case nodeKindMap:
		return emitPatchedMap(enc, v, n, opts)
	case nodeKindArray:
		return emitPatchedArray(enc, v, n, opts)
	default:
		enc.Raw(v.Bytes())
		return nil
	}
}

type mapPlanEntry struct {
	key      string
	original ValueRef
	hasOrig  bool
	child    *node
}

func emitPatchedMap(enc *Encoder, v ValueRef, n *node, opts EditOptions) error {
	mp, err := v.Map()
	if err != nil {
		return err
	}

	childKeys := make([]string, 0, len(n.mapChildren))
	for k := range n.mapChildren {
		childKeys = append(childKeys, k)
	}
	sort.Slice(childKeys, func(a, b int) bool { return cmpTextKeys(childKeys[a], childKeys[b]) < 0 })

	var plan []mapPlanEntry
	it := mp.Iter()
	origKey, origVal, origOk, err := it.Next()
	if err != nil {
		return err
	}
	ci := 0

	for origOk || ci < len(childKeys) {
		switch {
		case origOk && (ci >= len(childKeys) || cmpTextKeys(origKey, childKeys[ci]) < 0):
			plan = append(plan, mapPlanEntry{key: origKey, original: origVal, hasOrig: true})
			origKey, origVal, origOk, err = it.Next()
			if err != nil {
				return err
			}
		case ci < len(childKeys) && (!origOk || cmpTextKeys(childKeys[ci], origKey) < 0):
			key := childKeys[ci]
			child := n.mapChildren[key]
			ci++
			if child.hasTerminal && child.terminalDel {
				if !child.ifPresent {
					return encErr(ErrMissingKey)
				}
				continue
			}
			if child.hasTerminal {
				if child.terminalMode == ModeReplaceOnly {
					return encErr(ErrMissingKey)
				}
				plan = append(plan, mapPlanEntry{key: key, child: child})
				continue
			}
			if !opts.CreateMissingMaps {
				return encErr(ErrMissingKey)
			}
			plan = append(plan, mapPlanEntry{key: key, child: child})
		default:
			key := origKey
			child := n.mapChildren[childKeys[ci]]
			ci++
			if child.hasTerminal && child.terminalDel {
				origKey, origVal, origOk, err = it.Next()
				if err != nil {
					return err
				}
				continue
			}
			if child.hasTerminal && child.terminalMode == ModeInsertOnly {
				return encErr(ErrPatchConflict)
			}
			plan = append(plan, mapPlanEntry{key: key, original: origVal, hasOrig: true, child: child})
			origKey, origVal, origOk, err = it.Next()
			if err != nil {
				return err
			}
		}
	}

	return enc.Map(len(plan), func(me *MapEmitter) error {
		for _, pe := range plan {
			pe := pe
			if err := me.Entry(pe.key, func(e *Encoder) error {
				switch {
				case pe.child == nil:
					e.Raw(pe.original.Bytes())
					return nil
				case pe.child.hasTerminal:
					return pe.child.terminalSet(e)
				case !pe.hasOrig:
					return emitCreated(e, pe.child, opts)
				default:
					return emitValue(e, pe.original, pe.child, opts)
				}
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// emitCreated builds a brand-new value purely from a node's pending edits,
// used when CreateMissingMaps allows a set to materialize an intermediate
// map that didn't exist in the original bytes.
func emitCreated(enc *Encoder, n *node, opts EditOptions) error {
	if n.hasTerminal {
		return n.terminalSet(enc)
	}
	if n.kind != nodeKindMap {
		return encErr(ErrMissingKey)
	}
	keys := make([]string, 0, len(n.mapChildren))
	for k := range n.mapChildren {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return cmpTextKeys(keys[a], keys[b]) < 0 })

	type created struct {
		key   string
		child *node
	}
	var plan []created
	for _, k := range keys {
		child := n.mapChildren[k]
		if child.hasTerminal && child.terminalDel {
			if !child.ifPresent {
				return encErr(ErrMissingKey)
			}
			continue
		}
		plan = append(plan, created{key: k, child: child})
	}

	return enc.Map(len(plan), func(me *MapEmitter) error {
		for _, pe := range plan {
			pe := pe
			if err := me.Entry(pe.key, func(e *Encoder) error {
				return emitCreated(e, pe.child, opts)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func emitPatchedArray(enc *Encoder, v ValueRef, n *node, opts EditOptions) error {
	arr, err := v.Array()
	if err != nil {
		return err
	}
	length := arr.Len()
	it := arr.Iter()

	var ops []func(*Encoder) error
	origIdx := 0
	si := 0
	splices := n.splices

	for si < len(splices) {
		sp := splices[si]
		target := sp.start
		if sp.atEnd {
			target = length
		}
		if target < origIdx || target > length {
			if sp.ifPresent {
				si++
				continue
			}
			return encErr(ErrIndexOutOfBounds)
		}
		for origIdx < target {
			val, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				return newErr(ErrMalformedCanonical, v.Offset())
			}
			ops = append(ops, func(e *Encoder) error { e.Raw(val.Bytes()); return nil })
			origIdx++
		}

		if sp.deleteCount == 1 && len(sp.items) == 1 && sp.items[0].child != nil {
			val, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				if sp.ifPresent {
					si++
					continue
				}
				return encErr(ErrIndexOutOfBounds)
			}
			child := sp.items[0].child
			ops = append(ops, func(e *Encoder) error { return emitValue(e, val, child, opts) })
			origIdx++
			si++
			continue
		}

		deleted := 0
		for deleted < sp.deleteCount {
			_, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				if sp.ifPresent {
					break
				}
				return encErr(ErrIndexOutOfBounds)
			}
			origIdx++
			deleted++
		}
		for _, item := range sp.items {
			ops = append(ops, item.fresh)
		}
		si++
	}

	for {
		val, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		ops = append(ops, func(e *Encoder) error { e.Raw(val.Bytes()); return nil })
	}

	return enc.Array(len(ops), func(ae *ArrayEmitter) error {
		for _, op := range ops {
			if err := ae.Item(op); err != nil {
				return err
			}
		}
		return nil
	})
}
