package values

import "github.com/holiman/uint256"

// levelState tracks one nesting level while flattening: path is the
// sub-index already assigned to this level's own header item, length is
// the aggregate's declared element/field count, and counter is the next
// child's 0-based position.
type levelState struct {
	path    SubIndex
	depth   int
	length  int
	counter int
}

// PlainValueVisitor implements C1: it walks a value and produces a
// TracedValue — a linear ValueItems stream plus the address of every
// container it passed through.
type PlainValueVisitor struct {
	stack               []levelState
	items               ValueItems
	containerSubIndexes map[uintptr]SubIndex
}

func NewPlainValueVisitor() *PlainValueVisitor {
	return &PlainValueVisitor{containerSubIndexes: make(map[uintptr]SubIndex)}
}

// Flatten runs the visitor over v and returns the finished TracedValue.
// After accepting, all levels must have closed (every aggregate received
// exactly its declared number of children) or Flatten panics — an
// unbalanced visitor sequence is an interpreter-side bug, not a runtime
// condition the recorder should tolerate.
func Flatten(v Visitable) TracedValue {
	pv := NewPlainValueVisitor()
	v.Accept(pv, 0)
	return pv.finish()
}

func (pv *PlainValueVisitor) finish() TracedValue {
	if len(pv.stack) != 0 {
		panic("values: flattener finished with unclosed aggregate levels")
	}
	finalize(pv.items)
	return TracedValue{Items: pv.items, ContainerSubIndexes: pv.containerSubIndexes}
}

// prospectiveChildPath is the sub-index the *next* child of the current top
// level would receive, without mutating state. Used by VisitContainer,
// which must compute the same path a following VisitStruct/VisitVec call
// will assign without double-booking the parent's counter.
func (pv *PlainValueVisitor) prospectiveChildPath() SubIndex {
	if len(pv.stack) == 0 {
		return SubIndex{}
	}
	top := &pv.stack[len(pv.stack)-1]
	return top.path.Push(top.counter)
}

func (pv *PlainValueVisitor) enterChild(depth int) SubIndex {
	if len(pv.stack) == 0 {
		if depth != 0 {
			panic("values: leaf/aggregate at stack-empty depth must be 0")
		}
		return NewSubIndex(0)
	}
	top := &pv.stack[len(pv.stack)-1]
	if top.depth+1 != depth {
		panic("values: depth mismatch during flattening")
	}
	path := top.path.Push(top.counter)
	top.counter++
	return path
}

// cascade pops every level that has received all of its declared children.
func (pv *PlainValueVisitor) cascade() {
	for len(pv.stack) > 0 {
		top := pv.stack[len(pv.stack)-1]
		if top.counter != top.length {
			break
		}
		pv.stack = pv.stack[:len(pv.stack)-1]
	}
}

func (pv *PlainValueVisitor) visitLeaf(depth int, v SimpleValue) {
	path := pv.enterChild(depth)
	pv.items = append(pv.items, ValueItem{SubIndex: path, Header: false, Value: v})
	pv.cascade()
}

func (pv *PlainValueVisitor) VisitU8(depth int, val uint8)   { pv.visitLeaf(depth, SimpleFromInteger(IntegerU8(val))) }
func (pv *PlainValueVisitor) VisitU16(depth int, val uint16) { pv.visitLeaf(depth, SimpleFromInteger(IntegerU16(val))) }
func (pv *PlainValueVisitor) VisitU32(depth int, val uint32) { pv.visitLeaf(depth, SimpleFromInteger(IntegerU32(val))) }
func (pv *PlainValueVisitor) VisitU64(depth int, val uint64) { pv.visitLeaf(depth, SimpleFromInteger(IntegerU64(val))) }
func (pv *PlainValueVisitor) VisitU128(depth int, val *uint256.Int) {
	pv.visitLeaf(depth, SimpleFromInteger(IntegerU128(val)))
}
func (pv *PlainValueVisitor) VisitU256(depth int, val *uint256.Int) {
	pv.visitLeaf(depth, SimpleFromInteger(IntegerU256(val)))
}
func (pv *PlainValueVisitor) VisitBool(depth int, val bool) { pv.visitLeaf(depth, SimpleFromBool(val)) }
func (pv *PlainValueVisitor) VisitAddress(depth int, val Address) {
	pv.visitLeaf(depth, SimpleFromAddress(val))
}

func (pv *PlainValueVisitor) VisitContainer(rawAddress uintptr, depth int) {
	if len(pv.stack) == 0 {
		if depth != 0 {
			panic("values: root container depth must be 0")
		}
		pv.containerSubIndexes[rawAddress] = SubIndex{}
		return
	}
	top := &pv.stack[len(pv.stack)-1]
	if top.depth+1 != depth {
		panic("values: depth mismatch recording container pointer")
	}
	pv.containerSubIndexes[rawAddress] = pv.prospectiveChildPath().Push(0)
}

func (pv *PlainValueVisitor) visitAggregateEnter(depth, length int) bool {
	path := pv.enterChild(depth)
	pv.stack = append(pv.stack, levelState{path: path, depth: depth, length: length, counter: 0})
	pv.items = append(pv.items, ValueItem{SubIndex: path, Header: true, Value: SimpleFromInteger(IntegerU64(uint64(length)))})
	// An empty aggregate receives no child to trigger the cascade, so close
	// it (and any parent it completes) here.
	pv.cascade()
	return true
}

func (pv *PlainValueVisitor) VisitStruct(depth int, length int) bool { return pv.visitAggregateEnter(depth, length) }
func (pv *PlainValueVisitor) VisitVec(depth int, length int) bool    { return pv.visitAggregateEnter(depth, length) }

func (pv *PlainValueVisitor) VisitRef(depth int, isGlobal bool) bool {
	panic("values: reference cannot be a field of a container")
}

func (pv *PlainValueVisitor) VisitIndexed(rawAddress uintptr, depth int, idx int) {
	panic("values: indexed reference cannot be a field of a container")
}
