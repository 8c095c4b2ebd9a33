package movewitness

import (
	"github.com/vybium/movewitness/internal/movewitness/footprint"
	"github.com/vybium/movewitness/internal/movewitness/interp"
	"github.com/vybium/movewitness/internal/movewitness/values"
)

// Footprint is one trace record emitted while recording a call.
type Footprint = footprint.Footprint

// Operation is the tagged per-instruction payload carried by a Footprint.
type Operation = footprint.Operation

// Reference is a stable (frame, local, sub-index) coordinate standing in
// for a raw container pointer.
type Reference = values.Reference

// Program is a resolver-addressed sequence of instructions for one
// function.
type Program = interp.Program

// Instruction is a single bytecode instruction.
type Instruction = interp.Instruction

// Op is a bytecode opcode.
type Op = interp.Op

// Resolver supplies the static program metadata (callee bodies, struct
// field layout) a Machine needs to interpret a Program.
type Resolver = interp.Resolver

// StaticResolver is a map-backed Resolver suitable for tests and small
// embedded programs.
type StaticResolver = interp.StaticResolver

// Value is an interpreter-level runtime value: a simple scalar, an
// aggregate container, or a reference into one.
type Value = interp.Value

// Footprints is the aggregate a recording session builds over one entry
// call: the live pointer index plus the ordered record sequence persisted
// at function exit.
type Footprints = footprint.Footprints

func NewStaticResolver() *StaticResolver { return interp.NewStaticResolver() }
