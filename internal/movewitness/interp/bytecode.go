package interp

import "github.com/holiman/uint256"

// Op identifies one bytecode instruction family: a Move-like instruction
// set, numbered in declaration order.
type Op uint8

const (
	OpPop Op = iota
	OpRet
	OpBrTrue
	OpBrFalse
	OpBranch
	OpLdU8
	OpLdU16
	OpLdU32
	OpLdU64
	OpLdU128
	OpLdU256
	OpLdTrue
	OpLdFalse
	OpLdConst
	OpCopyLoc
	OpMoveLoc
	OpStLoc
	OpCall
	OpCallGeneric
	OpPack
	OpPackGeneric
	OpUnpack
	OpUnpackGeneric
	OpReadRef
	OpWriteRef
	OpFreezeRef
	OpAdd
	OpSub
	OpMul
	OpMod
	OpDiv
	OpBitOr
	OpBitAnd
	OpXor
	OpShl
	OpShr
	OpOr
	OpAnd
	OpNot
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAbort
	OpNop
	OpVecPack
	OpVecUnpack
	OpVecLen
	OpVecImmBorrow
	OpVecMutBorrow
	OpVecPushBack
	OpVecPopBack
	OpVecSwap
	OpMutBorrowLoc
	OpImmBorrowLoc
	OpMutBorrowField
	OpMutBorrowFieldGeneric
	OpImmBorrowField
	OpImmBorrowFieldGeneric
	OpCastU8
	OpCastU16
	OpCastU32
	OpCastU64
	OpCastU128
	OpCastU256

	// Global-resource family: the machine recognizes these only to fail
	// cleanly, since nothing downstream of it can witness global storage.
	OpMoveTo
	OpMoveFrom
	OpExists
	OpMutBorrowGlobal
	OpImmBorrowGlobal
)

// Instruction is one decoded bytecode word: an opcode plus whatever small
// integer operands it needs (branch offsets, local indices, pool/handle
// indices, declared arities). Not every field is meaningful for every Op.
type Instruction struct {
	Op         Op
	CodeOffset uint16
	LocalIndex uint8
	PoolIndex  uint16
	HandleIdx  uint16
	Num        uint64
	FieldOff   int
	Imm        bool
}

// Program is a flat function body plus its constant pool.
type Program struct {
	ModuleID      *string
	FunctionIndex int
	Instructions  []Instruction
	ConstPool     []uint256.Int
}

func NewProgram(moduleID *string, functionIndex int) *Program {
	return &Program{ModuleID: moduleID, FunctionIndex: functionIndex}
}

func (p *Program) Add(instrs ...Instruction) *Program {
	p.Instructions = append(p.Instructions, instrs...)
	return p
}
