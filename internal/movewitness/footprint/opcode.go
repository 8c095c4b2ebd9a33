package footprint

import "github.com/holiman/uint256"

// Opcode is the byte tag recorded for one bytecode instruction. Values are
// assigned in declaration order starting from OpcodeStart = 0; they do not
// follow an external bytecode serializer's opcode table, and they differ
// from interp.Op's numbering.
type Opcode uint8

const (
	// OpcodeStart is the sentinel op value the entry-call header uses — it
	// names no real instruction, a zero-context header written before the
	// first real footprint.
	OpcodeStart Opcode = iota
	OpcodePop
	OpcodeRet
	OpcodeBrTrue
	OpcodeBrFalse
	OpcodeBranch
	OpcodeLdU8
	OpcodeLdU16
	OpcodeLdU32
	OpcodeLdU64
	OpcodeLdU128
	OpcodeLdU256
	OpcodeLdTrue
	OpcodeLdFalse
	OpcodeLdConst
	OpcodeCopyLoc
	OpcodeMoveLoc
	OpcodeStLoc
	OpcodeCall
	OpcodeCallGeneric
	OpcodePack
	OpcodePackGeneric
	OpcodeUnpack
	OpcodeUnpackGeneric
	OpcodeReadRef
	OpcodeWriteRef
	OpcodeFreezeRef
	OpcodeAdd
	OpcodeSub
	OpcodeMul
	OpcodeMod
	OpcodeDiv
	OpcodeBitOr
	OpcodeBitAnd
	OpcodeXor
	OpcodeShl
	OpcodeShr
	OpcodeOr
	OpcodeAnd
	OpcodeNot
	OpcodeEq
	OpcodeNeq
	OpcodeLt
	OpcodeGt
	OpcodeLe
	OpcodeGe
	OpcodeAbort
	OpcodeNop
	OpcodeVecPack
	OpcodeVecLen
	OpcodeVecImmBorrow
	OpcodeVecMutBorrow
	OpcodeVecPushBack
	OpcodeVecPopBack
	OpcodeVecUnpack
	OpcodeVecSwap
	OpcodeMutBorrowLoc
	OpcodeImmBorrowLoc
	OpcodeMutBorrowField
	OpcodeMutBorrowFieldGeneric
	OpcodeImmBorrowField
	OpcodeImmBorrowFieldGeneric
	OpcodeCastU8
	OpcodeCastU16
	OpcodeCastU32
	OpcodeCastU64
	OpcodeCastU128
	OpcodeCastU256
)

// EncodedInstruction is what the recorder stores on a Footprint: the
// canonical opcode byte plus up to two 128-bit auxiliary immediates.
type EncodedInstruction struct {
	Op   Opcode
	Aux0 *uint256.Int
	Aux1 *uint256.Int
}

func encodeBare(op Opcode) EncodedInstruction {
	return EncodedInstruction{Op: op}
}

func encodeAux0(op Opcode, aux0 uint64) EncodedInstruction {
	return EncodedInstruction{Op: op, Aux0: uint256.NewInt(aux0)}
}

func encodeAux01(op Opcode, aux0, aux1 uint64) EncodedInstruction {
	return EncodedInstruction{Op: op, Aux0: uint256.NewInt(aux0), Aux1: uint256.NewInt(aux1)}
}

// encodeLdU256 splits a 256-bit literal into its low (aux0) and high (aux1)
// 128-bit halves, since EncodedInstruction's aux fields only carry 128 bits
// each.
func encodeLdU256(v *uint256.Int) EncodedInstruction {
	var lo, hi uint256.Int
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	mask.Sub(mask, uint256.NewInt(1))
	lo.And(v, mask)
	hi.Rsh(v, 128)
	return EncodedInstruction{Op: OpcodeLdU256, Aux0: &lo, Aux1: &hi}
}
