package values

import "github.com/holiman/uint256"

// ValueVisitor is the double-dispatch interface a runtime value offers an
// Accept method against. There are two implementations in this package:
// PlainValueVisitor (flattens a value into a ValueItems stream) and
// ReferenceValueVisitor (resolves a reference value to its raw container
// pointer and optional element index). Dispatch is a fixed set of
// per-variant callbacks, not reflection.
type ValueVisitor interface {
	VisitU8(depth int, val uint8)
	VisitU16(depth int, val uint16)
	VisitU32(depth int, val uint32)
	VisitU64(depth int, val uint64)
	VisitU128(depth int, val *uint256.Int)
	VisitU256(depth int, val *uint256.Int)
	VisitBool(depth int, val bool)
	VisitAddress(depth int, val Address)

	// VisitContainer fires when crossing into a shared container (struct or
	// vector) at rawAddress, before the corresponding VisitStruct/VisitVec.
	VisitContainer(rawAddress uintptr, depth int)

	// VisitStruct/VisitVec return whether the visitor wants to descend into
	// the aggregate's children.
	VisitStruct(depth int, length int) bool
	VisitVec(depth int, length int) bool

	// VisitRef fires for a reference value; the return indicates whether to
	// continue into whatever it points at.
	VisitRef(depth int, isGlobal bool) bool

	// VisitIndexed fires when a reference points at a specific vector
	// element rather than a whole container.
	VisitIndexed(rawAddress uintptr, depth int, idx int)
}

// Visitable is implemented by the interpreter's runtime value type so the
// flattener and reference resolver can walk it without depending on its
// concrete representation.
type Visitable interface {
	Accept(visitor ValueVisitor, depth int)
}
