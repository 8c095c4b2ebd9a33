package values

import "github.com/holiman/uint256"

// ReferenceValueVisitor implements C2: given a reference-typed runtime
// value, it resolves the raw container pointer the reference denotes and,
// if the reference targets one specific vector element rather than the
// whole container, that element's index.
//
// Exactly one VisitRef is expected at depth 0, followed by exactly one of
// VisitContainer (depth 1, whole-container reference) or VisitIndexed
// (depth 0, single-element reference). Every other callback is inert:
// a reference value has no business crossing into scalar leaves or other
// aggregates.
type ReferenceValueVisitor struct {
	pointer uintptr
	hasPtr  bool
	indexed *int
}

func NewReferenceValueVisitor() *ReferenceValueVisitor {
	return &ReferenceValueVisitor{}
}

// Resolve runs the visitor over v and returns the raw pointer it denotes
// plus, when v references a single element, that element's index.
func Resolve(v Visitable) (pointer uintptr, index *int) {
	rv := NewReferenceValueVisitor()
	v.Accept(rv, 0)
	if !rv.hasPtr {
		panic("values: reference value resolved no container pointer")
	}
	return rv.pointer, rv.indexed
}

func (rv *ReferenceValueVisitor) VisitU8(depth int, val uint8)            {}
func (rv *ReferenceValueVisitor) VisitU16(depth int, val uint16)          {}
func (rv *ReferenceValueVisitor) VisitU32(depth int, val uint32)          {}
func (rv *ReferenceValueVisitor) VisitU64(depth int, val uint64)          {}
func (rv *ReferenceValueVisitor) VisitU128(depth int, val *uint256.Int)   {}
func (rv *ReferenceValueVisitor) VisitU256(depth int, val *uint256.Int)   {}
func (rv *ReferenceValueVisitor) VisitBool(depth int, val bool)           {}
func (rv *ReferenceValueVisitor) VisitAddress(depth int, val Address)     {}

func (rv *ReferenceValueVisitor) VisitContainer(rawAddress uintptr, depth int) {
	if depth != 1 {
		return
	}
	rv.pointer = rawAddress
	rv.hasPtr = true
}

func (rv *ReferenceValueVisitor) VisitStruct(depth int, length int) bool { return false }
func (rv *ReferenceValueVisitor) VisitVec(depth int, length int) bool    { return false }

func (rv *ReferenceValueVisitor) VisitRef(depth int, isGlobal bool) bool {
	if depth != 0 {
		panic("values: nested reference encountered while resolving a reference")
	}
	return true
}

func (rv *ReferenceValueVisitor) VisitIndexed(rawAddress uintptr, depth int, idx int) {
	if depth != 0 {
		return
	}
	rv.pointer = rawAddress
	rv.hasPtr = true
	i := idx
	rv.indexed = &i
}
