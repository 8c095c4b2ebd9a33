package interp

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vybium/movewitness/internal/movewitness/footprint"
)

func newTestMachine() (*Machine, *footprint.Recorder, *StaticResolver) {
	logger := logrus.New()
	logger.SetOutput(nopWriter{})
	rec := footprint.NewRecorder(logger)
	res := NewStaticResolver()
	return NewMachine(rec, res), rec, res
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// TestMachineLeafStore reproduces storing a bare U64 into local 0: one StLoc
// footprint, no reverse-map entry since there is no container.
func TestMachineLeafStore(t *testing.T) {
	m, rec, _ := newTestMachine()
	prog := NewProgram(nil, 0).Add(
		Instruction{Op: OpLdU64, Num: 42},
		Instruction{Op: OpStLoc, LocalIndex: 0},
		Instruction{Op: OpRet},
	)

	if err := m.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := rec.Footprints().Data
	if len(data) != 3 {
		t.Fatalf("got %d footprints, want 3 (Start, StLoc, Ret)", len(data))
	}
	st, ok := data[1].Data.(footprint.OpStLoc)
	if !ok {
		t.Fatalf("footprint 1 = %T, want OpStLoc", data[1].Data)
	}
	if st.OldLocal != nil {
		t.Fatalf("old_local = %+v, want nil", st.OldLocal)
	}
	if len(st.NewValue) != 1 || st.NewValue[0].Value.Int.Uint64() != 42 {
		t.Fatalf("new_value = %+v, want one leaf U64(42)", st.NewValue)
	}
}

// TestMachineStructStoreAndFieldBorrow reproduces pushing Struct{U64(7),
// U64(9)}, storing it, then borrowing field 1 through a local reference.
func TestMachineStructStoreAndFieldBorrow(t *testing.T) {
	m, rec, res := newTestMachine()
	res.FieldOffsets[1] = 1

	prog := NewProgram(nil, 0).Add(
		Instruction{Op: OpLdU64, Num: 7},
		Instruction{Op: OpLdU64, Num: 9},
		Instruction{Op: OpPack, HandleIdx: 0, Num: 2},
		Instruction{Op: OpStLoc, LocalIndex: 0},
		Instruction{Op: OpImmBorrowLoc, LocalIndex: 0},
		Instruction{Op: OpImmBorrowField, HandleIdx: 1},
		Instruction{Op: OpRet},
	)

	if err := m.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := rec.Footprints().Data
	var st footprint.OpStLoc
	var bf footprint.OpBorrowField
	for _, fp := range data {
		switch v := fp.Data.(type) {
		case footprint.OpStLoc:
			st = v
		case footprint.OpBorrowField:
			bf = v
		}
	}

	if len(st.NewValue) != 3 {
		t.Fatalf("new_value has %d items, want 3 (header + 2 leaves)", len(st.NewValue))
	}
	header := st.NewValue[0]
	if !header.Header {
		t.Fatalf("first item should be the struct header")
	}
	if st.NewValue[1].Value.Int.Uint64() != 7 || st.NewValue[2].Value.Int.Uint64() != 9 {
		t.Fatalf("leaves = %v, want [7 9]", st.NewValue[1:])
	}

	if !bf.Imm {
		t.Fatalf("expected imm borrow")
	}
	if bf.Reference.FrameIndex != 0 || bf.Reference.LocalIndex != 0 || bf.Reference.SubIndex.Depth() != 0 {
		t.Fatalf("borrow_field reference = %+v, want frame 0 local 0 root", bf.Reference)
	}
	if bf.FieldOffset != 1 {
		t.Fatalf("field_offset = %d, want 1", bf.FieldOffset)
	}
}

// TestMachineMoveLocal reproduces moving local 0 out after it was populated
// with a struct: the move's payload must still carry the full flattened old
// value (header plus two leaves), and an address never registered must not
// resolve in the final pointer index.
func TestMachineMoveLocal(t *testing.T) {
	m, rec, _ := newTestMachine()

	prog := NewProgram(nil, 0).Add(
		Instruction{Op: OpLdU64, Num: 7},
		Instruction{Op: OpLdU64, Num: 9},
		Instruction{Op: OpPack, HandleIdx: 0, Num: 2},
		Instruction{Op: OpStLoc, LocalIndex: 0},
		Instruction{Op: OpMoveLoc, LocalIndex: 0},
		Instruction{Op: OpPop},
		Instruction{Op: OpRet},
	)

	if err := m.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := rec.Footprints().Data
	var mv footprint.OpMoveLoc
	found := false
	for _, fp := range data {
		if v, ok := fp.Data.(footprint.OpMoveLoc); ok {
			mv, found = v, true
		}
	}
	if !found {
		t.Fatalf("no MoveLoc footprint recorded")
	}
	if len(mv.Local) != 3 {
		t.Fatalf("move_loc snapshot has %d items, want 3", len(mv.Local))
	}

	state := rec.Footprints().State
	if _, ok := state.Resolve(0xDEADBEEF, nil); ok {
		t.Fatalf("sanity: unrelated address should never resolve")
	}
}

// TestMachineVectorPush reproduces storing an empty vector into local 0 then
// pushing U8(5) onto it through a borrowed reference.
func TestMachineVectorPush(t *testing.T) {
	m, rec, _ := newTestMachine()

	prog := NewProgram(nil, 0).Add(
		Instruction{Op: OpVecPack, HandleIdx: 0, Num: 0},
		Instruction{Op: OpStLoc, LocalIndex: 0},
		Instruction{Op: OpMutBorrowLoc, LocalIndex: 0},
		Instruction{Op: OpLdU8, Num: 5},
		Instruction{Op: OpVecPushBack, HandleIdx: 0},
		Instruction{Op: OpRet},
	)

	if err := m.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := rec.Footprints().Data
	var push footprint.OpVecPushBack
	found := false
	for _, fp := range data {
		if v, ok := fp.Data.(footprint.OpVecPushBack); ok {
			push, found = v, true
		}
	}
	if !found {
		t.Fatalf("no VecPushBack footprint recorded")
	}
	if push.VecLen != 0 {
		t.Fatalf("vec_len = %d, want 0 (before push)", push.VecLen)
	}
	if push.VecRef.FrameIndex != 0 || push.VecRef.LocalIndex != 0 {
		t.Fatalf("vec_ref = %+v, want frame 0 local 0", push.VecRef)
	}
	if len(push.Elem) != 1 || push.Elem[0].Value.Int.Uint64() != 5 {
		t.Fatalf("elem = %+v, want one leaf U8(5)", push.Elem)
	}
}

// TestMachineVectorElementReferenceAndFieldBorrow reproduces borrowing
// element 1 of Vec<Struct{U64}> of length 2 and then borrowing field 0
// through that element reference; the result must resolve to sub_index [2]
// (1-based element counting: element 1 becomes sub-index 1+1).
func TestMachineVectorElementReferenceAndFieldBorrow(t *testing.T) {
	m, rec, res := newTestMachine()
	res.FieldOffsets[1] = 0

	prog := NewProgram(nil, 0).Add(
		Instruction{Op: OpLdU64, Num: 1},
		Instruction{Op: OpPack, HandleIdx: 0, Num: 1},
		Instruction{Op: OpLdU64, Num: 2},
		Instruction{Op: OpPack, HandleIdx: 0, Num: 1},
		Instruction{Op: OpVecPack, HandleIdx: 0, Num: 2},
		Instruction{Op: OpStLoc, LocalIndex: 0},
		Instruction{Op: OpMutBorrowLoc, LocalIndex: 0},
		Instruction{Op: OpLdU64, Num: 1},
		Instruction{Op: OpVecMutBorrow, HandleIdx: 0},
		Instruction{Op: OpImmBorrowField, HandleIdx: 1},
		Instruction{Op: OpRet},
	)

	if err := m.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := rec.Footprints().Data
	var bf footprint.OpBorrowField
	found := false
	for _, fp := range data {
		if v, ok := fp.Data.(footprint.OpBorrowField); ok {
			bf, found = v, true
		}
	}
	if !found {
		t.Fatalf("no BorrowField footprint recorded")
	}
	got := bf.Reference.SubIndex.ToSlice()
	if bf.Reference.FrameIndex != 0 || bf.Reference.LocalIndex != 0 || len(got) != 1 || got[0] != 2 {
		t.Fatalf("reference = %+v (sub_index %v), want frame 0 local 0 sub_index [2]", bf.Reference, got)
	}
}

// TestMachineReturnClearsFrame reproduces a call into a second frame whose
// locals get populated, followed by Ret: each frame records one Ret, the
// callee's carrying caller frame 0 and the entry frame's carrying none, and
// a fabricated address does not resolve after teardown.
func TestMachineReturnClearsFrame(t *testing.T) {
	m, rec, res := newTestMachine()

	callee := NewProgram(nil, 1).Add(
		Instruction{Op: OpLdU64, Num: 3},
		Instruction{Op: OpLdU64, Num: 4},
		Instruction{Op: OpPack, HandleIdx: 0, Num: 2},
		Instruction{Op: OpStLoc, LocalIndex: 0},
		Instruction{Op: OpRet},
	)
	res.Functions[0] = callee

	// callee takes one argument, so its local 0 already holds a value when
	// StLoc overwrites it; the argument value itself is unused.
	caller := NewProgram(nil, 0).Add(
		Instruction{Op: OpLdU64, Num: 0},
		Instruction{Op: OpCall, HandleIdx: 0, Num: 1},
		Instruction{Op: OpRet},
	)

	if err := m.Run(caller, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := rec.Footprints().Data
	var rets []footprint.OpRet
	for _, fp := range data {
		if v, ok := fp.Data.(footprint.OpRet); ok {
			rets = append(rets, v)
		}
	}
	if len(rets) != 2 {
		t.Fatalf("got %d Ret footprints, want 2 (callee, caller)", len(rets))
	}
	if rets[0].Caller == nil || rets[0].Caller.FrameIndex != 0 {
		t.Fatalf("callee's Ret caller = %+v, want frame 0", rets[0].Caller)
	}
	if rets[1].Caller != nil {
		t.Fatalf("entry frame's Ret caller = %+v, want nil", rets[1].Caller)
	}

	state := rec.Footprints().State
	ref, ok := state.Resolve(0, nil)
	_ = ref
	if ok {
		t.Fatalf("resolving a fabricated address must never succeed after teardown")
	}
}

func TestMachineArithmeticAndCompare(t *testing.T) {
	m, rec, _ := newTestMachine()
	prog := NewProgram(nil, 0).Add(
		Instruction{Op: OpLdU64, Num: 10},
		Instruction{Op: OpLdU64, Num: 3},
		Instruction{Op: OpSub},
		Instruction{Op: OpLdU64, Num: 7},
		Instruction{Op: OpEq},
		Instruction{Op: OpPop},
		Instruction{Op: OpRet},
	)
	if err := m.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.stack) != 0 {
		t.Fatalf("stack not empty at end: %v", m.stack)
	}
	var eq footprint.OpEq
	found := false
	for _, fp := range rec.Footprints().Data {
		if v, ok := fp.Data.(footprint.OpEq); ok {
			eq, found = v, true
		}
	}
	if !found {
		t.Fatalf("no Eq footprint recorded")
	}
	_ = eq
}
