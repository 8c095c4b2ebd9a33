package footprint

import (
	"encoding/json"
	"fmt"

	"github.com/vybium/movewitness/internal/movewitness/values"
)

// CallerInfo identifies the frame a Ret returns control to.
type CallerInfo struct {
	FrameIndex int     `json:"frame_index"`
	ModuleID   *string `json:"module_id"`
	FunctionID int     `json:"function_id"`
	PC         uint16  `json:"pc"`
}

// EntryCall describes the top-level function invocation a trace covers.
type EntryCall struct {
	ModuleID      *string           `json:"module_id"`
	FunctionIndex int               `json:"function_index"`
	Args          []values.ValueItems `json:"args"`
}

// Operation is the tagged payload carried by a Footprint. Every instruction
// family the recorder supports has exactly one concrete type implementing
// it; opTag names the wire tag so Footprint's MarshalJSON can render the
// externally-tagged enum shape without reflection over struct names.
type Operation interface {
	opTag() string
}

type OpStart struct {
	EntryCall EntryCall `json:"entry_call"`
}

type OpPop struct {
	PopedValue values.ValueItems `json:"poped_value"`
}

type OpRet struct {
	Caller *CallerInfo `json:"caller"`
}

type OpBrTrue struct {
	CondVal    bool   `json:"cond_val"`
	CodeOffset uint16 `json:"code_offset"`
}

type OpBrFalse struct {
	CondVal    bool   `json:"cond_val"`
	CodeOffset uint16 `json:"code_offset"`
}

type OpBranch struct {
	CodeOffset uint16 `json:"code_offset"`
}

type OpLdSimple struct {
	Value values.Integer `json:"value"`
}

type OpLdTrue struct{}
type OpLdFalse struct{}

type OpLdConst struct {
	ConstPoolIndex uint16 `json:"const_pool_index"`
}

type OpCopyLoc struct {
	LocalIndex uint8             `json:"local_index"`
	Local      values.ValueItems `json:"local"`
}

type OpMoveLoc struct {
	LocalIndex uint8             `json:"local_index"`
	Local      values.ValueItems `json:"local"`
}

type OpStLoc struct {
	LocalIndex uint8              `json:"local_index"`
	OldLocal   *values.ValueItems `json:"old_local"`
	NewValue   values.ValueItems  `json:"new_value"`
}

type OpCall struct {
	FhIdx uint16              `json:"fh_idx"`
	Args  []values.ValueItems `json:"args"`
}

type OpCallGeneric struct {
	FhIdx uint16              `json:"fh_idx"`
	Args  []values.ValueItems `json:"args"`
}

type OpPack struct {
	SdIdx uint16              `json:"sd_idx"`
	Num   uint64              `json:"num"`
	Args  []values.ValueItems `json:"args"`
}

type OpPackGeneric struct {
	SiIdx uint16              `json:"si_idx"`
	Num   uint64              `json:"num"`
	Args  []values.ValueItems `json:"args"`
}

type OpUnpack struct {
	SdIdx uint16            `json:"sd_idx"`
	Num   uint64            `json:"num"`
	Arg   values.ValueItems `json:"arg"`
}

type OpUnpackGeneric struct {
	SdIdx uint16            `json:"sd_idx"`
	Num   uint64            `json:"num"`
	Arg   values.ValueItems `json:"arg"`
}

type OpReadRef struct {
	Reference values.Reference  `json:"reference"`
	Value     values.ValueItems `json:"value"`
}

type OpWriteRef struct {
	Reference values.Reference  `json:"reference"`
	OldValue  values.ValueItems `json:"old_value"`
	NewValue  values.ValueItems `json:"new_value"`
}

type OpFreezeRef struct{}

// BinaryIntegerOperationType tags which binary integer op a BinaryOp payload
// came from.
type BinaryIntegerOperationType string

const (
	BinAdd    BinaryIntegerOperationType = "Add"
	BinSub    BinaryIntegerOperationType = "Sub"
	BinMul    BinaryIntegerOperationType = "Mul"
	BinMod    BinaryIntegerOperationType = "Mod"
	BinDiv    BinaryIntegerOperationType = "Div"
	BinBitOr  BinaryIntegerOperationType = "BitOr"
	BinBitAnd BinaryIntegerOperationType = "BitAnd"
	BinXor    BinaryIntegerOperationType = "Xor"
	BinLt     BinaryIntegerOperationType = "Lt"
	BinGt     BinaryIntegerOperationType = "Gt"
	BinLe     BinaryIntegerOperationType = "Le"
	BinGe     BinaryIntegerOperationType = "Ge"
)

type OpBinaryOp struct {
	Ty  BinaryIntegerOperationType `json:"ty"`
	Lhs values.Integer             `json:"lhs"`
	Rhs values.Integer             `json:"rhs"`
}

type OpOr struct {
	Lhs bool `json:"lhs"`
	Rhs bool `json:"rhs"`
}

type OpAnd struct {
	Lhs bool `json:"lhs"`
	Rhs bool `json:"rhs"`
}

type OpNot struct {
	Value bool `json:"value"`
}

type OpShl struct {
	Rhs uint8          `json:"rhs"`
	Lhs values.Integer `json:"lhs"`
}

type OpShr struct {
	Rhs uint8          `json:"rhs"`
	Lhs values.Integer `json:"lhs"`
}

type OpEq struct {
	Lhs values.ValueItems `json:"lhs"`
	Rhs values.ValueItems `json:"rhs"`
}

type OpNeq struct {
	Lhs values.ValueItems `json:"lhs"`
	Rhs values.ValueItems `json:"rhs"`
}

type OpAbort struct {
	ErrorCode uint64 `json:"error_code"`
}

type OpNop struct{}

type OpVecPack struct {
	Si   uint16              `json:"si"`
	Num  uint64              `json:"num"`
	Args []values.ValueItems `json:"args"`
}

type OpVecUnpack struct {
	Si  uint16            `json:"si"`
	Num uint64            `json:"num"`
	Arg values.ValueItems `json:"arg"`
}

type OpVecLen struct {
	Si     uint16           `json:"si"`
	VecRef values.Reference `json:"vec_ref"`
	Len    uint64           `json:"len"`
}

type OpVecBorrow struct {
	Si     uint16           `json:"si"`
	Imm    bool             `json:"imm"`
	Idx    uint64           `json:"idx"`
	VecRef values.Reference `json:"vec_ref"`
}

type OpVecPushBack struct {
	Si     uint16            `json:"si"`
	VecLen uint64            `json:"vec_len"`
	VecRef values.Reference  `json:"vec_ref"`
	Elem   values.ValueItems `json:"elem"`
}

type OpVecPopBack struct {
	Si     uint16            `json:"si"`
	VecLen uint64            `json:"vec_len"`
	VecRef values.Reference  `json:"vec_ref"`
	Elem   values.ValueItems `json:"elem"`
}

type OpVecSwap struct {
	Si      uint16            `json:"si"`
	VecRef  values.Reference  `json:"vec_ref"`
	VecLen  uint64            `json:"vec_len"`
	Idx1    uint64            `json:"idx1"`
	Idx2    uint64            `json:"idx2"`
	Idx1Elem values.ValueItems `json:"idx1_elem"`
	Idx2Elem values.ValueItems `json:"idx2_elem"`
}

type OpBorrowLoc struct {
	Imm        bool  `json:"imm"`
	LocalIndex uint8 `json:"local_index"`
}

type OpBorrowField struct {
	Imm         bool             `json:"imm"`
	FhIdx       uint16           `json:"fh_idx"`
	Reference   values.Reference `json:"reference"`
	FieldOffset int              `json:"field_offset"`
}

type OpBorrowFieldGeneric struct {
	FiIdx       uint16           `json:"fi_idx"`
	Imm         bool             `json:"imm"`
	Reference   values.Reference `json:"reference"`
	FieldOffset int              `json:"field_offset"`
}

type OpCastU8 struct {
	Origin values.Integer `json:"origin"`
}
type OpCastU16 struct {
	Origin values.Integer `json:"origin"`
}
type OpCastU32 struct {
	Origin values.Integer `json:"origin"`
}
type OpCastU64 struct {
	Origin values.Integer `json:"origin"`
}
type OpCastU128 struct {
	Origin values.Integer `json:"origin"`
}
type OpCastU256 struct {
	Origin values.Integer `json:"origin"`
}

func (OpStart) opTag() string               { return "Start" }
func (OpPop) opTag() string                 { return "Pop" }
func (OpRet) opTag() string                 { return "Ret" }
func (OpBrTrue) opTag() string              { return "BrTrue" }
func (OpBrFalse) opTag() string             { return "BrFalse" }
func (OpBranch) opTag() string              { return "Branch" }
func (OpLdSimple) opTag() string            { return "LdSimple" }
func (OpLdTrue) opTag() string              { return "LdTrue" }
func (OpLdFalse) opTag() string             { return "LdFalse" }
func (OpLdConst) opTag() string             { return "LdConst" }
func (OpCopyLoc) opTag() string             { return "CopyLoc" }
func (OpMoveLoc) opTag() string             { return "MoveLoc" }
func (OpStLoc) opTag() string               { return "StLoc" }
func (OpCall) opTag() string                { return "Call" }
func (OpCallGeneric) opTag() string         { return "CallGeneric" }
func (OpPack) opTag() string                { return "Pack" }
func (OpPackGeneric) opTag() string         { return "PackGeneric" }
func (OpUnpack) opTag() string              { return "Unpack" }
func (OpUnpackGeneric) opTag() string       { return "UnpackGeneric" }
func (OpReadRef) opTag() string             { return "ReadRef" }
func (OpWriteRef) opTag() string            { return "WriteRef" }
func (OpFreezeRef) opTag() string           { return "FreezeRef" }
func (OpBinaryOp) opTag() string            { return "BinaryOp" }
func (OpOr) opTag() string                  { return "Or" }
func (OpAnd) opTag() string                 { return "And" }
func (OpNot) opTag() string                 { return "Not" }
func (OpShl) opTag() string                 { return "Shl" }
func (OpShr) opTag() string                 { return "Shr" }
func (OpEq) opTag() string                  { return "Eq" }
func (OpNeq) opTag() string                 { return "Neq" }
func (OpAbort) opTag() string               { return "Abort" }
func (OpNop) opTag() string                 { return "Nop" }
func (OpVecPack) opTag() string             { return "VecPack" }
func (OpVecUnpack) opTag() string           { return "VecUnpack" }
func (OpVecLen) opTag() string              { return "VecLen" }
func (OpVecBorrow) opTag() string           { return "VecBorrow" }
func (OpVecPushBack) opTag() string         { return "VecPushBack" }
func (OpVecPopBack) opTag() string          { return "VecPopBack" }
func (OpVecSwap) opTag() string             { return "VecSwap" }
func (OpBorrowLoc) opTag() string           { return "BorrowLoc" }
func (OpBorrowField) opTag() string         { return "BorrowField" }
func (OpBorrowFieldGeneric) opTag() string  { return "BorrowFieldGeneric" }
func (OpCastU8) opTag() string              { return "CastU8" }
func (OpCastU16) opTag() string             { return "CastU16" }
func (OpCastU32) opTag() string             { return "CastU32" }
func (OpCastU64) opTag() string             { return "CastU64" }
func (OpCastU128) opTag() string            { return "CastU128" }
func (OpCastU256) opTag() string            { return "CastU256" }

// marshalOperation renders op as the externally-tagged {"Tag":payload} shape
// serde produces for the Rust enum this schema was ported from.
func marshalOperation(op Operation) ([]byte, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	tag := op.opTag()
	out := make([]byte, 0, len(tag)+len(payload)+8)
	out = append(out, '{', '"')
	out = append(out, tag...)
	out = append(out, '"', ':')
	out = append(out, payload...)
	out = append(out, '}')
	return out, nil
}

func unmarshalOperation(data []byte) (Operation, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m) != 1 {
		return nil, fmt.Errorf("footprint: expected exactly one tagged operation field, got %d", len(m))
	}
	var tag string
	var raw json.RawMessage
	for k, v := range m {
		tag, raw = k, v
	}
	factory, ok := operationFactories[tag]
	if !ok {
		return nil, fmt.Errorf("footprint: unknown operation tag %q", tag)
	}
	return factory(raw)
}

var operationFactories = map[string]func(json.RawMessage) (Operation, error){
	"Start":              decodeOp[OpStart],
	"Pop":                decodeOp[OpPop],
	"Ret":                decodeOp[OpRet],
	"BrTrue":             decodeOp[OpBrTrue],
	"BrFalse":            decodeOp[OpBrFalse],
	"Branch":             decodeOp[OpBranch],
	"LdSimple":           decodeOp[OpLdSimple],
	"LdTrue":             decodeOp[OpLdTrue],
	"LdFalse":            decodeOp[OpLdFalse],
	"LdConst":            decodeOp[OpLdConst],
	"CopyLoc":            decodeOp[OpCopyLoc],
	"MoveLoc":            decodeOp[OpMoveLoc],
	"StLoc":              decodeOp[OpStLoc],
	"Call":               decodeOp[OpCall],
	"CallGeneric":        decodeOp[OpCallGeneric],
	"Pack":               decodeOp[OpPack],
	"PackGeneric":        decodeOp[OpPackGeneric],
	"Unpack":             decodeOp[OpUnpack],
	"UnpackGeneric":      decodeOp[OpUnpackGeneric],
	"ReadRef":            decodeOp[OpReadRef],
	"WriteRef":           decodeOp[OpWriteRef],
	"FreezeRef":          decodeOp[OpFreezeRef],
	"BinaryOp":           decodeOp[OpBinaryOp],
	"Or":                 decodeOp[OpOr],
	"And":                decodeOp[OpAnd],
	"Not":                decodeOp[OpNot],
	"Shl":                decodeOp[OpShl],
	"Shr":                decodeOp[OpShr],
	"Eq":                 decodeOp[OpEq],
	"Neq":                decodeOp[OpNeq],
	"Abort":              decodeOp[OpAbort],
	"Nop":                decodeOp[OpNop],
	"VecPack":            decodeOp[OpVecPack],
	"VecUnpack":          decodeOp[OpVecUnpack],
	"VecLen":             decodeOp[OpVecLen],
	"VecBorrow":          decodeOp[OpVecBorrow],
	"VecPushBack":        decodeOp[OpVecPushBack],
	"VecPopBack":         decodeOp[OpVecPopBack],
	"VecSwap":            decodeOp[OpVecSwap],
	"BorrowLoc":          decodeOp[OpBorrowLoc],
	"BorrowField":        decodeOp[OpBorrowField],
	"BorrowFieldGeneric": decodeOp[OpBorrowFieldGeneric],
	"CastU8":             decodeOp[OpCastU8],
	"CastU16":            decodeOp[OpCastU16],
	"CastU32":            decodeOp[OpCastU32],
	"CastU64":            decodeOp[OpCastU64],
	"CastU128":           decodeOp[OpCastU128],
	"CastU256":           decodeOp[OpCastU256],
}

// decodeOp unmarshals raw into a zero-valued T and returns it as an
// Operation, letting the factory table above stay a flat list of types
// instead of a parallel switch.
func decodeOp[T Operation](raw json.RawMessage) (Operation, error) {
	var op T
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, err
	}
	return op, nil
}
