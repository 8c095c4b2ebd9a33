package values

import "testing"

// fakeRef is a minimal ReferenceValue standing in for an interpreter
// reference pointing at a whole container.
type fakeRef struct{ addr uintptr }

func (f fakeRef) Accept(v ValueVisitor, depth int) {
	if v.VisitRef(depth, false) {
		v.VisitContainer(f.addr, depth+1)
	}
}
func (f fakeRef) IsReference() bool { return true }

// fakePlain is a non-reference value, routed to the flattener instead.
type fakePlain struct{ n uint64 }

func (f fakePlain) Accept(v ValueVisitor, depth int) { v.VisitU64(depth, f.n) }
func (f fakePlain) IsReference() bool                { return false }

func TestBuildTracedValueReference(t *testing.T) {
	resolver := MapRefResolver{0xB: NewReference(0, 1, NewSubIndex())}
	tv := BuildTracedValue(fakeRef{addr: 0xB}, resolver)
	if len(tv.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(tv.Items))
	}
	if tv.Items[0].Value.Kind != KindReference {
		t.Fatalf("kind = %d, want KindReference", tv.Items[0].Value.Kind)
	}
	if tv.Items[0].Value.Reference.LocalIndex != 1 {
		t.Fatalf("local index = %d, want 1", tv.Items[0].Value.Reference.LocalIndex)
	}
}

func TestBuildTracedValuePlain(t *testing.T) {
	tv := BuildTracedValue(fakePlain{n: 5}, MapRefResolver{})
	if len(tv.Items) != 1 || tv.Items[0].Value.Int.Uint64() != 5 {
		t.Fatalf("unexpected traced value %+v", tv)
	}
}
