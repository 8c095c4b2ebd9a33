package footprint

import (
	"testing"

	"github.com/vybium/movewitness/internal/movewitness/values"
)

func TestPointerIndexAddResolveRemove(t *testing.T) {
	p := NewPointerIndex()
	p.AddLocal(0, 1, map[uintptr]values.SubIndex{0xA: values.NewSubIndex()})

	ref, ok := p.Resolve(0xA, nil)
	if !ok {
		t.Fatalf("expected 0xA to resolve")
	}
	if ref.FrameIndex != 0 || ref.LocalIndex != 1 {
		t.Fatalf("ref = %+v, want frame 0 local 1", ref)
	}

	p.RemoveLocal(0, 1)
	if _, ok := p.Resolve(0xA, nil); ok {
		t.Fatalf("expected 0xA to be purged after RemoveLocal")
	}
}

func TestPointerIndexResolveIndexed(t *testing.T) {
	p := NewPointerIndex()
	p.AddLocal(2, 0, map[uintptr]values.SubIndex{0xB: values.NewSubIndex()})

	idx := 1
	ref, ok := p.Resolve(0xB, &idx)
	if !ok {
		t.Fatalf("expected 0xB to resolve")
	}
	if got := ref.SubIndex.ToSlice(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("indexed resolve sub_index = %v, want [2]", got)
	}
}

func TestPointerIndexOverwriteRequiresExplicitRemove(t *testing.T) {
	p := NewPointerIndex()
	p.AddLocal(0, 0, map[uintptr]values.SubIndex{0xA: values.NewSubIndex()})
	p.RemoveLocal(0, 0)
	p.AddLocal(0, 0, map[uintptr]values.SubIndex{0xC: values.NewSubIndex()})

	if _, ok := p.Resolve(0xA, nil); ok {
		t.Fatalf("old address should no longer resolve after slot was overwritten")
	}
	if _, ok := p.Resolve(0xC, nil); !ok {
		t.Fatalf("new address should resolve")
	}
}

func TestPointerIndexRemoveLocalsPurgesWholeFrame(t *testing.T) {
	p := NewPointerIndex()
	p.AddLocal(3, 0, map[uintptr]values.SubIndex{0xA: values.NewSubIndex()})
	p.AddLocal(3, 1, map[uintptr]values.SubIndex{0xB: values.NewSubIndex()})

	p.RemoveLocals(3)

	if _, ok := p.Resolve(0xA, nil); ok {
		t.Fatalf("0xA should be purged by RemoveLocals")
	}
	if _, ok := p.Resolve(0xB, nil); ok {
		t.Fatalf("0xB should be purged by RemoveLocals")
	}
}
