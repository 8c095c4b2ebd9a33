// Command movewitness-trace runs a small bytecode program under the
// execution-trace witnessing recorder and persists the resulting witness.
//
// A program is read as a single JSON document from stdin:
//
//	{
//	  "script_name": "my_script",
//	  "build_dir": "build",
//	  "field_offsets": {"1": 0},
//	  "instructions": [
//	    {"op": "LdU64", "num": 42},
//	    {"op": "StLoc", "local_index": 0},
//	    {"op": "Ret"}
//	  ]
//	}
//
// With no stdin input (or an empty one), a small built-in demo program runs
// instead, so the binary has a usable default without any input file.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vybium/movewitness/internal/movewitness/interp"
	"github.com/vybium/movewitness/pkg/movewitness"
)

// instructionInput is the wire shape for one bytecode instruction, named
// after interp.Op's constants with the "Op" prefix stripped.
type instructionInput struct {
	Op         string `json:"op"`
	Num        uint64 `json:"num,omitempty"`
	LocalIndex uint8  `json:"local_index,omitempty"`
	HandleIdx  uint16 `json:"handle_idx,omitempty"`
	FieldOff   int    `json:"field_off,omitempty"`
	Imm        bool   `json:"imm,omitempty"`
}

// traceInput is the top-level document read from stdin.
type traceInput struct {
	ScriptName   string             `json:"script_name"`
	BuildDir     string             `json:"build_dir,omitempty"`
	FieldOffsets map[string]int     `json:"field_offsets,omitempty"`
	FieldCounts  map[string]int     `json:"field_counts,omitempty"`
	Instructions []instructionInput `json:"instructions"`
}

var opNames = map[string]interp.Op{
	"Pop": interp.OpPop, "Ret": interp.OpRet,
	"BrTrue": interp.OpBrTrue, "BrFalse": interp.OpBrFalse, "Branch": interp.OpBranch,
	"LdU8": interp.OpLdU8, "LdU16": interp.OpLdU16, "LdU32": interp.OpLdU32,
	"LdU64": interp.OpLdU64, "LdU128": interp.OpLdU128, "LdU256": interp.OpLdU256,
	"LdTrue": interp.OpLdTrue, "LdFalse": interp.OpLdFalse, "LdConst": interp.OpLdConst,
	"CopyLoc": interp.OpCopyLoc, "MoveLoc": interp.OpMoveLoc, "StLoc": interp.OpStLoc,
	"Call": interp.OpCall, "CallGeneric": interp.OpCallGeneric,
	"Pack": interp.OpPack, "PackGeneric": interp.OpPackGeneric,
	"Unpack": interp.OpUnpack, "UnpackGeneric": interp.OpUnpackGeneric,
	"ReadRef": interp.OpReadRef, "WriteRef": interp.OpWriteRef, "FreezeRef": interp.OpFreezeRef,
	"Add": interp.OpAdd, "Sub": interp.OpSub, "Mul": interp.OpMul, "Mod": interp.OpMod, "Div": interp.OpDiv,
	"BitOr": interp.OpBitOr, "BitAnd": interp.OpBitAnd, "Xor": interp.OpXor,
	"Shl": interp.OpShl, "Shr": interp.OpShr, "Or": interp.OpOr, "And": interp.OpAnd, "Not": interp.OpNot,
	"Eq": interp.OpEq, "Neq": interp.OpNeq, "Lt": interp.OpLt, "Gt": interp.OpGt, "Le": interp.OpLe, "Ge": interp.OpGe,
	"Abort": interp.OpAbort, "Nop": interp.OpNop,
	"VecPack": interp.OpVecPack, "VecUnpack": interp.OpVecUnpack, "VecLen": interp.OpVecLen,
	"VecImmBorrow": interp.OpVecImmBorrow, "VecMutBorrow": interp.OpVecMutBorrow,
	"VecPushBack": interp.OpVecPushBack, "VecPopBack": interp.OpVecPopBack, "VecSwap": interp.OpVecSwap,
	"MutBorrowLoc": interp.OpMutBorrowLoc, "ImmBorrowLoc": interp.OpImmBorrowLoc,
	"MutBorrowField": interp.OpMutBorrowField, "MutBorrowFieldGeneric": interp.OpMutBorrowFieldGeneric,
	"ImmBorrowField": interp.OpImmBorrowField, "ImmBorrowFieldGeneric": interp.OpImmBorrowFieldGeneric,
	"CastU8": interp.OpCastU8, "CastU16": interp.OpCastU16, "CastU32": interp.OpCastU32,
	"CastU64": interp.OpCastU64, "CastU128": interp.OpCastU128, "CastU256": interp.OpCastU256,
	"MoveTo": interp.OpMoveTo, "MoveFrom": interp.OpMoveFrom, "Exists": interp.OpExists,
	"MutBorrowGlobal": interp.OpMutBorrowGlobal, "ImmBorrowGlobal": interp.OpImmBorrowGlobal,
}

func main() {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		fatal(fmt.Sprintf("failed to read stdin: %v", err))
	}

	var input traceInput
	if len(raw) == 0 {
		input = demoInput()
	} else if err := json.Unmarshal(raw, &input); err != nil {
		fatal(fmt.Sprintf("failed to parse program: %v", err))
	}
	if input.ScriptName == "" {
		input.ScriptName = "script"
	}
	if input.BuildDir == "" {
		input.BuildDir = "build"
	}

	prog, err := convertProgram(input.Instructions)
	if err != nil {
		fatal(fmt.Sprintf("failed to convert program: %v", err))
	}

	resolver := movewitness.NewStaticResolver()
	for k, v := range input.FieldOffsets {
		idx, err := parseHandleIdx(k)
		if err != nil {
			fatal(fmt.Sprintf("invalid field_offsets key %q: %v", k, err))
		}
		resolver.FieldOffsets[idx] = v
	}
	for k, v := range input.FieldCounts {
		idx, err := parseHandleIdx(k)
		if err != nil {
			fatal(fmt.Sprintf("invalid field_counts key %q: %v", k, err))
		}
		resolver.FieldCounts[idx] = v
	}

	config := movewitness.DefaultConfig().WithBuildDir(input.BuildDir)

	logStderr("starting recording session...")
	session, err := movewitness.NewSession(resolver, config)
	if err != nil {
		fatal(fmt.Sprintf("failed to create session: %v", err))
	}

	logStderr("executing program...")
	if err := session.Run(prog, nil); err != nil {
		fatal(fmt.Sprintf("execution failed: %v", err))
	}
	logStderr(fmt.Sprintf("recorded %d footprints", len(session.Footprints().Data)))

	path, err := session.WriteWitness(input.ScriptName)
	if err != nil {
		fatal(fmt.Sprintf("failed to write witness: %v", err))
	}
	fmt.Println(path)
	fmt.Println("witness saved at", path)
}

func convertProgram(instructions []instructionInput) (*movewitness.Program, error) {
	prog := interp.NewProgram(nil, 0)
	for i, in := range instructions {
		op, ok := opNames[in.Op]
		if !ok {
			return nil, fmt.Errorf("unknown instruction %d (%s)", i, in.Op)
		}
		prog.Add(interp.Instruction{
			Op:         op,
			LocalIndex: in.LocalIndex,
			HandleIdx:  in.HandleIdx,
			Num:        in.Num,
			FieldOff:   in.FieldOff,
			Imm:        in.Imm,
		})
	}
	return prog, nil
}

func parseHandleIdx(s string) (uint16, error) {
	var v uint16
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// demoInput is the built-in program run when no JSON arrives on stdin: pack
// a two-field struct, store it in local 0, then immutably borrow field 1.
func demoInput() traceInput {
	return traceInput{
		ScriptName: "demo",
		FieldOffsets: map[string]int{
			"1": 1,
		},
		Instructions: []instructionInput{
			{Op: "LdU64", Num: 7},
			{Op: "LdU64", Num: 9},
			{Op: "Pack", HandleIdx: 0, Num: 2},
			{Op: "StLoc", LocalIndex: 0},
			{Op: "ImmBorrowLoc", LocalIndex: 0},
			{Op: "ImmBorrowField", HandleIdx: 1},
			{Op: "Ret"},
		},
	}
}

func logStderr(msg string) {
	w := bufio.NewWriter(os.Stderr)
	fmt.Fprintln(w, "movewitness-trace:", msg)
	w.Flush()
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
