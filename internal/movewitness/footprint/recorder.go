package footprint

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vybium/movewitness/internal/movewitness/values"
)

// RecorderError is the fatal error class the recorder raises: nothing is
// recovered locally, the host either gets a valid record or the frame
// aborts.
type RecorderError struct {
	Code    string
	Message string
}

func (e *RecorderError) Error() string { return fmt.Sprintf("footprint: %s: %s", e.Code, e.Message) }

const (
	ErrUnsupportedInstruction = "UnsupportedInstruction"
	ErrInvalidVisitorState    = "InvalidVisitorState"
	ErrPointerLookupMiss      = "PointerLookupMiss"
)

// Context carries the per-instruction trace header the recorder attaches to
// every Footprint: call context, program counter, frame, and operand-stack
// height. The interpreter's pre-instruction hook builds one of these and
// passes it to whichever Record* method matches the instruction about to
// execute.
type Context struct {
	ModuleID     *string
	FunctionID   int
	PC           uint16
	FrameIndex   int
	StackPointer int
}

// Recorder is C4: given read-only access to the interpreter's operand stack
// and locals (supplied by the caller as already-extracted values, since the
// recorder never touches live storage directly), it builds an Operation
// payload per instruction and appends a Footprint. It mutates C3 only on
// entry-call setup, StLoc, MoveLoc, Ret, and Abort.
type Recorder struct {
	fp     *Footprints
	logger *logrus.Logger
}

func NewRecorder(logger *logrus.Logger) *Recorder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Recorder{fp: NewFootprints(), logger: logger}
}

// Footprints returns the accumulated trace. The caller owns it after the
// entry call returns; the recorder appends nothing further once the call
// the Recorder was built for has returned.
func (r *Recorder) Footprints() *Footprints { return r.fp }

func (r *Recorder) append(ctx Context, enc EncodedInstruction, data Operation) {
	r.fp.append(Footprint{
		ModuleID:     ctx.ModuleID,
		FunctionID:   ctx.FunctionID,
		PC:           ctx.PC,
		FrameIndex:   ctx.FrameIndex,
		StackPointer: ctx.StackPointer,
		Encoded:      enc,
		Data:         data,
	})
}

func (r *Recorder) fatal(ctx Context, code, message string) error {
	r.logger.WithFields(logrus.Fields{
		"code":        code,
		"pc":          ctx.PC,
		"frame_index": ctx.FrameIndex,
	}).Error(message)
	return &RecorderError{Code: code, Message: message}
}

func (r *Recorder) resolve(ctx Context, v values.ReferenceValue) (values.Reference, error) {
	pointer, index := values.Resolve(v)
	ref, ok := r.fp.State.Resolve(pointer, index)
	if !ok {
		return values.Reference{}, r.fatal(ctx, ErrPointerLookupMiss, "reference resolved to an address with no owning local")
	}
	return ref, nil
}

func buildItems(state *PointerIndex, v values.ReferenceValue) values.ValueItems {
	return values.BuildTracedValue(v, state).Items
}

func buildArgItems(state *PointerIndex, args []values.ReferenceValue) []values.ValueItems {
	out := make([]values.ValueItems, len(args))
	for i, a := range args {
		out[i] = buildItems(state, a)
	}
	return out
}

// RecordEntryCall is footprint_args_processing: flatten each argument in
// order, register its containers under frame 0, and push a single Start
// record with a zero-context header before the entry frame's first real
// instruction.
func (r *Recorder) RecordEntryCall(moduleID *string, functionIndex int, args []values.ReferenceValue) {
	items := make([]values.ValueItems, len(args))
	for i, a := range args {
		tv := values.BuildTracedValue(a, r.fp.State)
		r.fp.State.AddLocal(0, i, tv.ContainerSubIndexes)
		items[i] = tv.Items
	}
	r.fp.append(Footprint{
		Encoded: EncodedInstruction{Op: OpcodeStart},
		Data: OpStart{EntryCall: EntryCall{
			ModuleID:      moduleID,
			FunctionIndex: functionIndex,
			Args:          items,
		}},
	})
}

func (r *Recorder) RecordPop(ctx Context, v values.ReferenceValue) {
	r.append(ctx, encodeBare(OpcodePop), OpPop{PopedValue: buildItems(r.fp.State, v)})
}

func (r *Recorder) RecordRet(ctx Context, caller *CallerInfo) {
	r.append(ctx, encodeBare(OpcodeRet), OpRet{Caller: caller})
	r.fp.State.RemoveLocals(ctx.FrameIndex)
}

func (r *Recorder) RecordBrTrue(ctx Context, cond bool, codeOffset uint16) {
	r.append(ctx, encodeAux0(OpcodeBrTrue, uint64(codeOffset)), OpBrTrue{CondVal: cond, CodeOffset: codeOffset})
}

func (r *Recorder) RecordBrFalse(ctx Context, cond bool, codeOffset uint16) {
	r.append(ctx, encodeAux0(OpcodeBrFalse, uint64(codeOffset)), OpBrFalse{CondVal: cond, CodeOffset: codeOffset})
}

func (r *Recorder) RecordBranch(ctx Context, codeOffset uint16) {
	r.append(ctx, encodeAux0(OpcodeBranch, uint64(codeOffset)), OpBranch{CodeOffset: codeOffset})
}

func ldOpcodeForWidth(w values.Width) Opcode {
	switch w {
	case values.Width8:
		return OpcodeLdU8
	case values.Width16:
		return OpcodeLdU16
	case values.Width32:
		return OpcodeLdU32
	case values.Width64:
		return OpcodeLdU64
	case values.Width128:
		return OpcodeLdU128
	default:
		return OpcodeLdU256
	}
}

func (r *Recorder) RecordLdSimple(ctx Context, n values.Integer) {
	var enc EncodedInstruction
	if n.Width() == values.Width256 {
		enc = encodeLdU256(n.Uint256())
	} else {
		enc = EncodedInstruction{Op: ldOpcodeForWidth(n.Width()), Aux0: n.Uint256()}
	}
	r.append(ctx, enc, OpLdSimple{Value: n})
}

func (r *Recorder) RecordLdTrue(ctx Context) {
	r.append(ctx, encodeBare(OpcodeLdTrue), OpLdTrue{})
}

func (r *Recorder) RecordLdFalse(ctx Context) {
	r.append(ctx, encodeBare(OpcodeLdFalse), OpLdFalse{})
}

func (r *Recorder) RecordLdConst(ctx Context, constPoolIndex uint16) {
	r.append(ctx, encodeAux0(OpcodeLdConst, uint64(constPoolIndex)), OpLdConst{ConstPoolIndex: constPoolIndex})
}

func (r *Recorder) RecordCopyLoc(ctx Context, localIndex uint8, v values.ReferenceValue) {
	items := buildItems(r.fp.State, v)
	r.append(ctx, encodeAux0(OpcodeCopyLoc, uint64(localIndex)), OpCopyLoc{LocalIndex: localIndex, Local: items})
}

// RecordMoveLoc purges the slot's C3 entry before snapshotting: the local
// is consumed, so nothing should resolve back to it afterward.
func (r *Recorder) RecordMoveLoc(ctx Context, localIndex uint8, v values.ReferenceValue) {
	r.fp.State.RemoveLocal(ctx.FrameIndex, int(localIndex))
	items := buildItems(r.fp.State, v)
	r.append(ctx, encodeAux0(OpcodeMoveLoc, uint64(localIndex)), OpMoveLoc{LocalIndex: localIndex, Local: items})
}

// RecordStLoc flattens the incoming value, replaces the slot's C3 entry,
// then snapshots whatever the slot held previously (or nil if the slot was
// never written).
func (r *Recorder) RecordStLoc(ctx Context, localIndex uint8, newVal values.ReferenceValue, oldVal values.ReferenceValue, hadOld bool) {
	newTV := values.BuildTracedValue(newVal, r.fp.State)
	r.fp.State.RemoveLocal(ctx.FrameIndex, int(localIndex))
	r.fp.State.AddLocal(ctx.FrameIndex, int(localIndex), newTV.ContainerSubIndexes)

	var oldItems *values.ValueItems
	if hadOld {
		items := buildItems(r.fp.State, oldVal)
		oldItems = &items
	}
	r.append(ctx, encodeAux0(OpcodeStLoc, uint64(localIndex)), OpStLoc{
		LocalIndex: localIndex,
		OldLocal:   oldItems,
		NewValue:   newTV.Items,
	})
}

func (r *Recorder) RecordCall(ctx Context, fhIdx uint16, args []values.ReferenceValue) {
	r.append(ctx, encodeAux0(OpcodeCall, uint64(fhIdx)), OpCall{FhIdx: fhIdx, Args: buildArgItems(r.fp.State, args)})
}

func (r *Recorder) RecordCallGeneric(ctx Context, fhIdx uint16, args []values.ReferenceValue) {
	r.append(ctx, encodeAux0(OpcodeCallGeneric, uint64(fhIdx)), OpCallGeneric{FhIdx: fhIdx, Args: buildArgItems(r.fp.State, args)})
}

func (r *Recorder) RecordPack(ctx Context, sdIdx uint16, num uint64, args []values.ReferenceValue) {
	r.append(ctx, encodeAux01(OpcodePack, uint64(sdIdx), num), OpPack{SdIdx: sdIdx, Num: num, Args: buildArgItems(r.fp.State, args)})
}

func (r *Recorder) RecordPackGeneric(ctx Context, siIdx uint16, num uint64, args []values.ReferenceValue) {
	r.append(ctx, encodeAux01(OpcodePackGeneric, uint64(siIdx), num), OpPackGeneric{SiIdx: siIdx, Num: num, Args: buildArgItems(r.fp.State, args)})
}

func (r *Recorder) RecordUnpack(ctx Context, sdIdx uint16, num uint64, arg values.ReferenceValue) {
	r.append(ctx, encodeAux01(OpcodeUnpack, uint64(sdIdx), num), OpUnpack{SdIdx: sdIdx, Num: num, Arg: buildItems(r.fp.State, arg)})
}

func (r *Recorder) RecordUnpackGeneric(ctx Context, sdIdx uint16, num uint64, arg values.ReferenceValue) {
	r.append(ctx, encodeAux01(OpcodeUnpackGeneric, uint64(sdIdx), num), OpUnpackGeneric{SdIdx: sdIdx, Num: num, Arg: buildItems(r.fp.State, arg)})
}

func (r *Recorder) RecordReadRef(ctx Context, ref values.ReferenceValue, derefValue values.ReferenceValue) error {
	resolved, err := r.resolve(ctx, ref)
	if err != nil {
		return err
	}
	r.append(ctx, encodeBare(OpcodeReadRef), OpReadRef{Reference: resolved, Value: buildItems(r.fp.State, derefValue)})
	return nil
}

func (r *Recorder) RecordWriteRef(ctx Context, ref values.ReferenceValue, oldValue, newValue values.ReferenceValue) error {
	resolved, err := r.resolve(ctx, ref)
	if err != nil {
		return err
	}
	r.append(ctx, encodeBare(OpcodeWriteRef), OpWriteRef{
		Reference: resolved,
		OldValue:  buildItems(r.fp.State, oldValue),
		NewValue:  buildItems(r.fp.State, newValue),
	})
	return nil
}

func (r *Recorder) RecordFreezeRef(ctx Context) {
	r.append(ctx, encodeBare(OpcodeFreezeRef), OpFreezeRef{})
}

var binaryOpcodes = map[BinaryIntegerOperationType]Opcode{
	BinAdd:    OpcodeAdd,
	BinSub:    OpcodeSub,
	BinMul:    OpcodeMul,
	BinMod:    OpcodeMod,
	BinDiv:    OpcodeDiv,
	BinBitOr:  OpcodeBitOr,
	BinBitAnd: OpcodeBitAnd,
	BinXor:    OpcodeXor,
	BinLt:     OpcodeLt,
	BinGt:     OpcodeGt,
	BinLe:     OpcodeLe,
	BinGe:     OpcodeGe,
}

func (r *Recorder) RecordBinaryOp(ctx Context, ty BinaryIntegerOperationType, lhs, rhs values.Integer) {
	r.append(ctx, encodeBare(binaryOpcodes[ty]), OpBinaryOp{Ty: ty, Lhs: lhs, Rhs: rhs})
}

func (r *Recorder) RecordOr(ctx Context, lhs, rhs bool) {
	r.append(ctx, encodeBare(OpcodeOr), OpOr{Lhs: lhs, Rhs: rhs})
}

func (r *Recorder) RecordAnd(ctx Context, lhs, rhs bool) {
	r.append(ctx, encodeBare(OpcodeAnd), OpAnd{Lhs: lhs, Rhs: rhs})
}

func (r *Recorder) RecordNot(ctx Context, v bool) {
	r.append(ctx, encodeBare(OpcodeNot), OpNot{Value: v})
}

func (r *Recorder) RecordShl(ctx Context, lhs values.Integer, rhs uint8) {
	r.append(ctx, encodeBare(OpcodeShl), OpShl{Lhs: lhs, Rhs: rhs})
}

func (r *Recorder) RecordShr(ctx Context, lhs values.Integer, rhs uint8) {
	r.append(ctx, encodeBare(OpcodeShr), OpShr{Lhs: lhs, Rhs: rhs})
}

func (r *Recorder) RecordEq(ctx Context, lhs, rhs values.ReferenceValue) {
	r.append(ctx, encodeBare(OpcodeEq), OpEq{Lhs: buildItems(r.fp.State, lhs), Rhs: buildItems(r.fp.State, rhs)})
}

func (r *Recorder) RecordNeq(ctx Context, lhs, rhs values.ReferenceValue) {
	r.append(ctx, encodeBare(OpcodeNeq), OpNeq{Lhs: buildItems(r.fp.State, lhs), Rhs: buildItems(r.fp.State, rhs)})
}

func (r *Recorder) RecordAbort(ctx Context, errorCode uint64) {
	r.append(ctx, encodeBare(OpcodeAbort), OpAbort{ErrorCode: errorCode})
	r.fp.State.RemoveLocals(ctx.FrameIndex)
}

func (r *Recorder) RecordNop(ctx Context) {
	r.append(ctx, encodeBare(OpcodeNop), OpNop{})
}

func (r *Recorder) RecordVecPack(ctx Context, si uint16, num uint64, args []values.ReferenceValue) {
	r.append(ctx, encodeAux01(OpcodeVecPack, uint64(si), num), OpVecPack{Si: si, Num: num, Args: buildArgItems(r.fp.State, args)})
}

func (r *Recorder) RecordVecUnpack(ctx Context, si uint16, num uint64, arg values.ReferenceValue) {
	r.append(ctx, encodeAux01(OpcodeVecUnpack, uint64(si), num), OpVecUnpack{Si: si, Num: num, Arg: buildItems(r.fp.State, arg)})
}

func (r *Recorder) RecordVecLen(ctx Context, si uint16, vecRef values.ReferenceValue, length uint64) error {
	resolved, err := r.resolve(ctx, vecRef)
	if err != nil {
		return err
	}
	r.append(ctx, encodeAux0(OpcodeVecLen, uint64(si)), OpVecLen{Si: si, VecRef: resolved, Len: length})
	return nil
}

func (r *Recorder) RecordVecBorrow(ctx Context, si uint16, imm bool, idx uint64, vecRef values.ReferenceValue) error {
	resolved, err := r.resolve(ctx, vecRef)
	if err != nil {
		return err
	}
	op := OpcodeVecMutBorrow
	if imm {
		op = OpcodeVecImmBorrow
	}
	r.append(ctx, encodeAux0(op, uint64(si)), OpVecBorrow{Si: si, Imm: imm, Idx: idx, VecRef: resolved})
	return nil
}

func (r *Recorder) RecordVecPushBack(ctx Context, si uint16, vecLen uint64, vecRef values.ReferenceValue, elem values.ReferenceValue) error {
	resolved, err := r.resolve(ctx, vecRef)
	if err != nil {
		return err
	}
	r.append(ctx, encodeAux0(OpcodeVecPushBack, uint64(si)), OpVecPushBack{
		Si: si, VecLen: vecLen, VecRef: resolved, Elem: buildItems(r.fp.State, elem),
	})
	return nil
}

func (r *Recorder) RecordVecPopBack(ctx Context, si uint16, vecLen uint64, vecRef values.ReferenceValue, elem values.ReferenceValue) error {
	resolved, err := r.resolve(ctx, vecRef)
	if err != nil {
		return err
	}
	r.append(ctx, encodeAux0(OpcodeVecPopBack, uint64(si)), OpVecPopBack{
		Si: si, VecLen: vecLen, VecRef: resolved, Elem: buildItems(r.fp.State, elem),
	})
	return nil
}

func (r *Recorder) RecordVecSwap(ctx Context, si uint16, vecRef values.ReferenceValue, vecLen, idx1, idx2 uint64, elem1, elem2 values.ReferenceValue) error {
	resolved, err := r.resolve(ctx, vecRef)
	if err != nil {
		return err
	}
	r.append(ctx, encodeAux0(OpcodeVecSwap, uint64(si)), OpVecSwap{
		Si: si, VecRef: resolved, VecLen: vecLen, Idx1: idx1, Idx2: idx2,
		Idx1Elem: buildItems(r.fp.State, elem1), Idx2Elem: buildItems(r.fp.State, elem2),
	})
	return nil
}

func (r *Recorder) RecordBorrowLoc(ctx Context, imm bool, localIndex uint8) {
	op := OpcodeMutBorrowLoc
	if imm {
		op = OpcodeImmBorrowLoc
	}
	r.append(ctx, encodeAux0(op, uint64(localIndex)), OpBorrowLoc{Imm: imm, LocalIndex: localIndex})
}

// RecordBorrowField resolves the struct reference's raw container address
// via C2, looks its owning Reference up in C3 — with ref_child(idx+1)
// applied only when the struct reference names a vector element — and
// attaches the resolver-supplied field offset. Reconstructing
// the resulting field reference from (reference, field_offset) is left to
// the consumer.
func (r *Recorder) RecordBorrowField(ctx Context, imm bool, fhIdx uint16, structRef values.ReferenceValue, fieldOffset int) error {
	resolved, err := r.resolve(ctx, structRef)
	if err != nil {
		return err
	}
	op := OpcodeMutBorrowField
	if imm {
		op = OpcodeImmBorrowField
	}
	r.append(ctx, encodeAux0(op, uint64(fhIdx)), OpBorrowField{Imm: imm, FhIdx: fhIdx, Reference: resolved, FieldOffset: fieldOffset})
	return nil
}

func (r *Recorder) RecordBorrowFieldGeneric(ctx Context, imm bool, fiIdx uint16, structRef values.ReferenceValue, fieldOffset int) error {
	resolved, err := r.resolve(ctx, structRef)
	if err != nil {
		return err
	}
	op := OpcodeMutBorrowFieldGeneric
	if imm {
		op = OpcodeImmBorrowFieldGeneric
	}
	r.append(ctx, encodeAux0(op, uint64(fiIdx)), OpBorrowFieldGeneric{FiIdx: fiIdx, Imm: imm, Reference: resolved, FieldOffset: fieldOffset})
	return nil
}

func (r *Recorder) RecordCastU8(ctx Context, origin values.Integer) {
	r.append(ctx, encodeBare(OpcodeCastU8), OpCastU8{Origin: origin})
}
func (r *Recorder) RecordCastU16(ctx Context, origin values.Integer) {
	r.append(ctx, encodeBare(OpcodeCastU16), OpCastU16{Origin: origin})
}
func (r *Recorder) RecordCastU32(ctx Context, origin values.Integer) {
	r.append(ctx, encodeBare(OpcodeCastU32), OpCastU32{Origin: origin})
}
func (r *Recorder) RecordCastU64(ctx Context, origin values.Integer) {
	r.append(ctx, encodeBare(OpcodeCastU64), OpCastU64{Origin: origin})
}
func (r *Recorder) RecordCastU128(ctx Context, origin values.Integer) {
	r.append(ctx, encodeBare(OpcodeCastU128), OpCastU128{Origin: origin})
}
func (r *Recorder) RecordCastU256(ctx Context, origin values.Integer) {
	r.append(ctx, encodeBare(OpcodeCastU256), OpCastU256{Origin: origin})
}

// RecordUnsupported handles the global-resource family (MoveTo, MoveFrom,
// Exists, *BorrowGlobal*): witnessing semantics are undefined for these, so
// the recorder fails the frame rather than emit a meaningless record.
func (r *Recorder) RecordUnsupported(ctx Context, name string) error {
	return r.fatal(ctx, ErrUnsupportedInstruction, fmt.Sprintf("%s is not supported by the witnessing layer", name))
}
