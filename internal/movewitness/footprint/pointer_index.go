// Package footprint implements C3 (the pointer index), C4 (the
// per-instruction recorder), and C5 (the event schema and opcode encoder) of
// the execution-trace witnessing subsystem.
package footprint

import "github.com/vybium/movewitness/internal/movewitness/values"

// PointerIndex is C3: a bidirectional mapping between a local's sub-index
// addressing of the containers it owns and the raw container addresses that
// own those containers, kept in lock-step so that any reference-taking
// instruction can translate a raw address back into a stable coordinate.
type PointerIndex struct {
	// frame -> local -> (raw address -> path)
	forward map[int]map[int]map[uintptr]values.SubIndex
	// raw address -> owning reference
	reverse map[uintptr]values.Reference
}

func NewPointerIndex() *PointerIndex {
	return &PointerIndex{
		forward: make(map[int]map[int]map[uintptr]values.SubIndex),
		reverse: make(map[uintptr]values.Reference),
	}
}

// AddLocal installs addrMap as the set of containers local (frameIndex,
// localIndex) owns, replacing any prior set, and publishes a reverse entry
// for every address in it. Callers must remove the prior set first (via
// RemoveLocal) in the same step if the slot is being overwritten — AddLocal
// itself only adds.
func (p *PointerIndex) AddLocal(frameIndex, localIndex int, addrMap map[uintptr]values.SubIndex) {
	byLocal, ok := p.forward[frameIndex]
	if !ok {
		byLocal = make(map[int]map[uintptr]values.SubIndex)
		p.forward[frameIndex] = byLocal
	}
	byLocal[localIndex] = addrMap
	for addr, path := range addrMap {
		p.reverse[addr] = values.NewReference(frameIndex, localIndex, path)
	}
}

// RemoveLocal drops the container set owned by (frameIndex, localIndex) and
// purges every reverse entry that pointed back at it.
func (p *PointerIndex) RemoveLocal(frameIndex, localIndex int) {
	if byLocal, ok := p.forward[frameIndex]; ok {
		delete(byLocal, localIndex)
	}
	for addr, ref := range p.reverse {
		if ref.FrameIndex == frameIndex && ref.LocalIndex == localIndex {
			delete(p.reverse, addr)
		}
	}
}

// RemoveLocals purges every local and reverse entry belonging to frameIndex,
// called on frame teardown (Ret, or an abort that terminates the frame).
func (p *PointerIndex) RemoveLocals(frameIndex int) {
	delete(p.forward, frameIndex)
	for addr, ref := range p.reverse {
		if ref.FrameIndex == frameIndex {
			delete(p.reverse, addr)
		}
	}
}

// Resolve looks up the Reference a raw container address was last recorded
// under, applying RefChild(index+1) when a specific element is requested.
// It implements values.RefResolver so the recorder can hand a PointerIndex
// straight to values.BuildTracedValue.
func (p *PointerIndex) Resolve(pointer uintptr, index *int) (values.Reference, bool) {
	ref, ok := p.reverse[pointer]
	if !ok {
		return values.Reference{}, false
	}
	if index != nil {
		ref = ref.RefChild(*index + 1)
	}
	return ref, true
}
