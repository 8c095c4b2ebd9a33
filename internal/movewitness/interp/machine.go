package interp

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/vybium/movewitness/internal/movewitness/footprint"
	"github.com/vybium/movewitness/internal/movewitness/values"
)

// Machine is a small frame-based interpreter whose only job is to retire
// instructions in an order a real Move-bytecode interpreter would, invoking
// the footprint.Recorder before each one executes. It is not a faithful
// Move VM — arithmetic and type-checking are toy-grade — its only
// obligation is to drive the recorder through every instruction family
// with correct stack/locals/reference bookkeeping.
type Machine struct {
	Recorder *footprint.Recorder
	Resolver Resolver

	frames []*Frame
	stack  []*Value

	nextFrame int
}

func NewMachine(recorder *footprint.Recorder, resolver Resolver) *Machine {
	return &Machine{Recorder: recorder, Resolver: resolver}
}

func (m *Machine) push(v *Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() *Value {
	n := len(m.stack)
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v
}

func (m *Machine) popN(n int) []*Value {
	out := make([]*Value, n)
	copy(out, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return out
}

func (m *Machine) top() *Frame { return m.frames[len(m.frames)-1] }

func refSlice(vs []*Value) []values.ReferenceValue {
	out := make([]values.ReferenceValue, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// Run drives program to completion against args as the entry frame's
// locals, recording the entry-call footprint first.
func (m *Machine) Run(program *Program, args []*Value) error {
	m.Recorder.RecordEntryCall(program.ModuleID, program.FunctionIndex, refSlice(args))

	frame := NewFrame(m.nextFrame, program, len(args))
	m.nextFrame++
	for i, a := range args {
		frame.SetLocal(i, a)
	}
	m.frames = append(m.frames, frame)

	for len(m.frames) > 0 {
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) context(f *Frame) footprint.Context {
	return footprint.Context{
		ModuleID:     f.Program.ModuleID,
		FunctionID:   f.Program.FunctionIndex,
		PC:           f.PC,
		FrameIndex:   f.Index,
		StackPointer: len(m.stack),
	}
}

func (m *Machine) step() error {
	f := m.top()
	if f.AtEnd() {
		return fmt.Errorf("interp: frame %d ran off the end of its program", f.Index)
	}
	inst := f.CurrentInstruction()
	ctx := m.context(f)
	f.PC++

	switch inst.Op {
	case OpPop:
		v := m.pop()
		m.Recorder.RecordPop(ctx, v)

	case OpRet:
		var caller *footprint.CallerInfo
		if f.HasCaller {
			callerFrame := m.frames[len(m.frames)-2]
			caller = &footprint.CallerInfo{
				FrameIndex: f.CallerIdx,
				ModuleID:   callerFrame.Program.ModuleID,
				FunctionID: callerFrame.Program.FunctionIndex,
				PC:         f.CallerPC,
			}
		}
		m.Recorder.RecordRet(ctx, caller)
		m.frames = m.frames[:len(m.frames)-1]

	case OpBrTrue:
		cond := m.pop().AsBool()
		m.Recorder.RecordBrTrue(ctx, cond, inst.CodeOffset)
		if cond {
			f.PC = inst.CodeOffset
		}

	case OpBrFalse:
		cond := m.pop().AsBool()
		m.Recorder.RecordBrFalse(ctx, cond, inst.CodeOffset)
		if !cond {
			f.PC = inst.CodeOffset
		}

	case OpBranch:
		m.Recorder.RecordBranch(ctx, inst.CodeOffset)
		f.PC = inst.CodeOffset

	case OpLdU8, OpLdU16, OpLdU32, OpLdU64, OpLdU128, OpLdU256:
		n := ldLiteral(inst, f.Program)
		m.Recorder.RecordLdSimple(ctx, n)
		m.push(NewSimple(values.SimpleFromInteger(n)))

	case OpLdTrue:
		m.Recorder.RecordLdTrue(ctx)
		m.push(NewBool(true))

	case OpLdFalse:
		m.Recorder.RecordLdFalse(ctx)
		m.push(NewBool(false))

	case OpLdConst:
		m.Recorder.RecordLdConst(ctx, inst.PoolIndex)
		m.push(NewU256(&f.Program.ConstPool[inst.PoolIndex]))

	case OpCopyLoc:
		v := f.Locals[inst.LocalIndex]
		m.Recorder.RecordCopyLoc(ctx, inst.LocalIndex, v)
		m.push(v)

	case OpMoveLoc:
		v := f.Locals[inst.LocalIndex]
		m.Recorder.RecordMoveLoc(ctx, inst.LocalIndex, v)
		f.ClearLocal(int(inst.LocalIndex))
		m.push(v)

	case OpStLoc:
		newVal := m.pop()
		var oldVal values.ReferenceValue
		hadOld := !f.IsInvalid(int(inst.LocalIndex))
		if hadOld {
			oldVal = f.Locals[inst.LocalIndex]
		}
		m.Recorder.RecordStLoc(ctx, inst.LocalIndex, newVal, oldVal, hadOld)
		f.SetLocal(int(inst.LocalIndex), newVal)

	case OpCall, OpCallGeneric:
		callee := m.Resolver.FunctionAt(inst.HandleIdx)
		args := m.popN(int(inst.Num))
		if inst.Op == OpCall {
			m.Recorder.RecordCall(ctx, inst.HandleIdx, refSlice(args))
		} else {
			m.Recorder.RecordCallGeneric(ctx, inst.HandleIdx, refSlice(args))
		}
		callee2 := NewFrame(m.nextFrame, callee, len(args))
		m.nextFrame++
		for i, a := range args {
			callee2.SetLocal(i, a)
		}
		callee2.HasCaller = true
		callee2.CallerIdx = f.Index
		callee2.CallerPC = f.PC
		m.frames = append(m.frames, callee2)

	case OpPack:
		n := int(inst.Num)
		args := m.popN(n)
		m.Recorder.RecordPack(ctx, inst.HandleIdx, inst.Num, refSlice(args))
		m.push(NewStruct(args))

	case OpPackGeneric:
		n := int(inst.Num)
		args := m.popN(n)
		m.Recorder.RecordPackGeneric(ctx, inst.HandleIdx, inst.Num, refSlice(args))
		m.push(NewStruct(args))

	case OpUnpack:
		agg := m.pop()
		m.Recorder.RecordUnpack(ctx, inst.HandleIdx, uint64(len(agg.Fields())), agg)
		for _, field := range agg.Fields() {
			m.push(field)
		}

	case OpUnpackGeneric:
		agg := m.pop()
		m.Recorder.RecordUnpackGeneric(ctx, inst.HandleIdx, uint64(len(agg.Fields())), agg)
		for _, field := range agg.Fields() {
			m.push(field)
		}

	case OpReadRef:
		ref := m.pop()
		target := ref.Deref()
		if err := m.Recorder.RecordReadRef(ctx, ref, target); err != nil {
			return err
		}
		m.push(target)

	case OpWriteRef:
		newVal := m.pop()
		ref := m.pop()
		oldVal := ref.Deref()
		if err := m.Recorder.RecordWriteRef(ctx, ref, oldVal, newVal); err != nil {
			return err
		}
		writeThroughRef(ref, newVal)

	case OpFreezeRef:
		m.Recorder.RecordFreezeRef(ctx)
		ref := m.pop()
		m.push(ref)

	case OpAdd, OpSub, OpMul, OpMod, OpDiv, OpBitOr, OpBitAnd, OpXor, OpLt, OpGt, OpLe, OpGe:
		rhsV := m.pop()
		lhsV := m.pop()
		lhs, err := lhsV.AsInteger()
		if err != nil {
			return err
		}
		rhs, err := rhsV.AsInteger()
		if err != nil {
			return err
		}
		ty := binaryOpType(inst.Op)
		m.Recorder.RecordBinaryOp(ctx, ty, lhs, rhs)
		m.push(applyBinaryOp(ty, lhs, rhs))

	case OpOr:
		rhs := m.pop().AsBool()
		lhs := m.pop().AsBool()
		m.Recorder.RecordOr(ctx, lhs, rhs)
		m.push(NewBool(lhs || rhs))

	case OpAnd:
		rhs := m.pop().AsBool()
		lhs := m.pop().AsBool()
		m.Recorder.RecordAnd(ctx, lhs, rhs)
		m.push(NewBool(lhs && rhs))

	case OpNot:
		v := m.pop().AsBool()
		m.Recorder.RecordNot(ctx, v)
		m.push(NewBool(!v))

	case OpShl, OpShr:
		rhsV := m.pop()
		lhsV := m.pop()
		lhs, err := lhsV.AsInteger()
		if err != nil {
			return err
		}
		rhs := uint8(rhsV.simple.Int.Uint64())
		if inst.Op == OpShl {
			m.Recorder.RecordShl(ctx, lhs, rhs)
		} else {
			m.Recorder.RecordShr(ctx, lhs, rhs)
		}
		m.push(NewSimple(values.SimpleFromInteger(shiftInteger(inst.Op, lhs, rhs))))

	case OpEq, OpNeq:
		rhs := m.pop()
		lhs := m.pop()
		if inst.Op == OpEq {
			m.Recorder.RecordEq(ctx, lhs, rhs)
		} else {
			m.Recorder.RecordNeq(ctx, lhs, rhs)
		}
		m.push(NewBool(valuesEqual(lhs, rhs) == (inst.Op == OpEq)))

	case OpAbort:
		code := m.pop()
		errCode, err := code.AsInteger()
		if err != nil {
			return err
		}
		m.Recorder.RecordAbort(ctx, errCode.Uint64())
		m.frames = m.frames[:len(m.frames)-1]

	case OpNop:
		m.Recorder.RecordNop(ctx)

	case OpVecPack:
		n := int(inst.Num)
		args := m.popN(n)
		m.Recorder.RecordVecPack(ctx, inst.HandleIdx, inst.Num, refSlice(args))
		m.push(NewVector(args))

	case OpVecUnpack:
		vec := m.pop()
		m.Recorder.RecordVecUnpack(ctx, inst.HandleIdx, uint64(vec.Len()), vec)
		for _, e := range vec.Fields() {
			m.push(e)
		}

	case OpVecLen:
		vecRef := m.pop()
		length := uint64(vecRef.Deref().Len())
		if err := m.Recorder.RecordVecLen(ctx, inst.HandleIdx, vecRef, length); err != nil {
			return err
		}
		m.push(NewU64(length))

	case OpVecImmBorrow, OpVecMutBorrow:
		idx := m.pop()
		idxVal, err := idx.AsInteger()
		if err != nil {
			return err
		}
		vecRef := m.pop()
		imm := inst.Op == OpVecImmBorrow
		if err := m.Recorder.RecordVecBorrow(ctx, inst.HandleIdx, imm, idxVal.Uint64(), vecRef); err != nil {
			return err
		}
		m.push(NewIndexedRef(vecRef.Deref(), int(idxVal.Uint64()), false))

	case OpVecPushBack:
		elem := m.pop()
		vecRef := m.pop()
		vecLen := uint64(vecRef.Deref().Len())
		if err := m.Recorder.RecordVecPushBack(ctx, inst.HandleIdx, vecLen, vecRef, elem); err != nil {
			return err
		}
		vecRef.refTarget.fields = append(vecRef.refTarget.fields, elem)

	case OpVecPopBack:
		vecRef := m.pop()
		fields := vecRef.refTarget.fields
		vecLen := uint64(len(fields))
		elem := fields[len(fields)-1]
		if err := m.Recorder.RecordVecPopBack(ctx, inst.HandleIdx, vecLen, vecRef, elem); err != nil {
			return err
		}
		vecRef.refTarget.fields = fields[:len(fields)-1]
		m.push(elem)

	case OpVecSwap:
		idx2 := m.pop()
		idx1 := m.pop()
		vecRef := m.pop()
		i1, err := idx1.AsInteger()
		if err != nil {
			return err
		}
		i2, err := idx2.AsInteger()
		if err != nil {
			return err
		}
		fields := vecRef.refTarget.fields
		a, b := i1.Uint64(), i2.Uint64()
		elem1, elem2 := fields[a], fields[b]
		if err := m.Recorder.RecordVecSwap(ctx, inst.HandleIdx, vecRef, uint64(len(fields)), a, b, elem1, elem2); err != nil {
			return err
		}
		fields[a], fields[b] = fields[b], fields[a]

	case OpMutBorrowLoc, OpImmBorrowLoc:
		imm := inst.Op == OpImmBorrowLoc
		m.Recorder.RecordBorrowLoc(ctx, imm, inst.LocalIndex)
		m.push(NewContainerRef(f.Locals[inst.LocalIndex], false))

	case OpMutBorrowField, OpImmBorrowField:
		structRef := m.pop()
		imm := inst.Op == OpImmBorrowField
		offset := m.Resolver.FieldOffset(inst.HandleIdx)
		if err := m.Recorder.RecordBorrowField(ctx, imm, inst.HandleIdx, structRef, offset); err != nil {
			return err
		}
		m.push(fieldRef(structRef, offset))

	case OpMutBorrowFieldGeneric, OpImmBorrowFieldGeneric:
		structRef := m.pop()
		imm := inst.Op == OpImmBorrowFieldGeneric
		offset := m.Resolver.FieldOffset(inst.HandleIdx)
		if err := m.Recorder.RecordBorrowFieldGeneric(ctx, imm, inst.HandleIdx, structRef, offset); err != nil {
			return err
		}
		m.push(fieldRef(structRef, offset))

	case OpCastU8, OpCastU16, OpCastU32, OpCastU64, OpCastU128, OpCastU256:
		origin, err := m.pop().AsInteger()
		if err != nil {
			return err
		}
		recordCast(m.Recorder, ctx, inst.Op, origin)
		m.push(NewSimple(values.SimpleFromInteger(castInteger(inst.Op, origin))))

	case OpMoveTo, OpMoveFrom, OpExists, OpMutBorrowGlobal, OpImmBorrowGlobal:
		return m.Recorder.RecordUnsupported(ctx, globalOpName(inst.Op))

	default:
		return fmt.Errorf("interp: unknown opcode %d", inst.Op)
	}
	return nil
}

func ldLiteral(inst Instruction, prog *Program) values.Integer {
	switch inst.Op {
	case OpLdU8:
		return values.IntegerU8(uint8(inst.Num))
	case OpLdU16:
		return values.IntegerU16(uint16(inst.Num))
	case OpLdU32:
		return values.IntegerU32(uint32(inst.Num))
	case OpLdU64:
		return values.IntegerU64(inst.Num)
	case OpLdU128:
		return values.IntegerU128(uint256.NewInt(inst.Num))
	default:
		return values.IntegerU256(&prog.ConstPool[inst.PoolIndex])
	}
}

func binaryOpType(op Op) footprint.BinaryIntegerOperationType {
	switch op {
	case OpAdd:
		return footprint.BinAdd
	case OpSub:
		return footprint.BinSub
	case OpMul:
		return footprint.BinMul
	case OpMod:
		return footprint.BinMod
	case OpDiv:
		return footprint.BinDiv
	case OpBitOr:
		return footprint.BinBitOr
	case OpBitAnd:
		return footprint.BinBitAnd
	case OpXor:
		return footprint.BinXor
	case OpLt:
		return footprint.BinLt
	case OpGt:
		return footprint.BinGt
	case OpLe:
		return footprint.BinLe
	default:
		return footprint.BinGe
	}
}

func applyBinaryOp(ty footprint.BinaryIntegerOperationType, lhs, rhs values.Integer) *Value {
	l, r := lhs.Uint256(), rhs.Uint256()
	var out uint256.Int
	switch ty {
	case footprint.BinAdd:
		out.Add(l, r)
	case footprint.BinSub:
		out.Sub(l, r)
	case footprint.BinMul:
		out.Mul(l, r)
	case footprint.BinMod:
		out.Mod(l, r)
	case footprint.BinDiv:
		out.Div(l, r)
	case footprint.BinBitOr:
		out.Or(l, r)
	case footprint.BinBitAnd:
		out.And(l, r)
	case footprint.BinXor:
		out.Xor(l, r)
	case footprint.BinLt:
		return NewBool(l.Lt(r))
	case footprint.BinGt:
		return NewBool(l.Gt(r))
	case footprint.BinLe:
		return NewBool(!l.Gt(r))
	case footprint.BinGe:
		return NewBool(!l.Lt(r))
	}
	switch lhs.Width() {
	case values.Width128:
		return NewU128(&out)
	case values.Width256:
		return NewU256(&out)
	default:
		return NewSimple(values.SimpleFromInteger(reWidth(lhs.Width(), &out)))
	}
}

func reWidth(w values.Width, v *uint256.Int) values.Integer {
	switch w {
	case values.Width8:
		return values.IntegerU8(uint8(v.Uint64()))
	case values.Width16:
		return values.IntegerU16(uint16(v.Uint64()))
	case values.Width32:
		return values.IntegerU32(uint32(v.Uint64()))
	default:
		return values.IntegerU64(v.Uint64())
	}
}

func shiftInteger(op Op, lhs values.Integer, rhs uint8) values.Integer {
	var out uint256.Int
	if op == OpShl {
		out.Lsh(lhs.Uint256(), uint(rhs))
	} else {
		out.Rsh(lhs.Uint256(), uint(rhs))
	}
	return reWidth(lhs.Width(), &out)
}

func valuesEqual(a, b *Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindSimple {
		ai, aerr := a.AsInteger()
		bi, berr := b.AsInteger()
		if aerr == nil && berr == nil {
			return ai.Equal(bi)
		}
		return a.simple.Bool == b.simple.Bool
	}
	return a.Addr() == b.Addr()
}

func recordCast(r *footprint.Recorder, ctx footprint.Context, op Op, origin values.Integer) {
	switch op {
	case OpCastU8:
		r.RecordCastU8(ctx, origin)
	case OpCastU16:
		r.RecordCastU16(ctx, origin)
	case OpCastU32:
		r.RecordCastU32(ctx, origin)
	case OpCastU64:
		r.RecordCastU64(ctx, origin)
	case OpCastU128:
		r.RecordCastU128(ctx, origin)
	default:
		r.RecordCastU256(ctx, origin)
	}
}

func castInteger(op Op, origin values.Integer) values.Integer {
	v := origin.Uint256()
	switch op {
	case OpCastU8:
		return values.IntegerU8(uint8(v.Uint64()))
	case OpCastU16:
		return values.IntegerU16(uint16(v.Uint64()))
	case OpCastU32:
		return values.IntegerU32(uint32(v.Uint64()))
	case OpCastU64:
		return values.IntegerU64(v.Uint64())
	case OpCastU128:
		return values.IntegerU128(v)
	default:
		return values.IntegerU256(v)
	}
}

func globalOpName(op Op) string {
	switch op {
	case OpMoveTo:
		return "MoveTo"
	case OpMoveFrom:
		return "MoveFrom"
	case OpExists:
		return "Exists"
	case OpMutBorrowGlobal:
		return "MutBorrowGlobal"
	default:
		return "ImmBorrowGlobal"
	}
}

// fieldRef builds the runtime reference BorrowField/BorrowFieldGeneric leave
// on the stack: a reference to the field itself if it is an aggregate
// (usable by a further Borrow/Read/Write), otherwise a reference whose only
// valid use is ReadRef/WriteRef against the field in place.
func fieldRef(structRef *Value, offset int) *Value {
	field := structRef.Deref().Fields()[offset]
	if field.agg != nil {
		return NewContainerRef(field, false)
	}
	return &Value{kind: KindReference, refTarget: structRef.Deref().agg, refIndex: intPtr(offset)}
}

func intPtr(i int) *int { return &i }

// writeThroughRef overwrites the value a reference currently names, whether
// that is a whole container's backing field list or one vector/struct slot.
func writeThroughRef(ref *Value, newVal *Value) {
	if ref.refIndex != nil {
		ref.refTarget.fields[*ref.refIndex] = newVal
		return
	}
	ref.refTarget.fields = newVal.Fields()
	ref.refTarget.isVector = newVal.agg != nil && newVal.agg.isVector
}
