package interp

// Frame is one call's locals and program counter, adapted from the
// teacher's VMState fields (InstructionPointer, per-call bookkeeping)
// split out per call instead of kept flat, since the witnessing layer
// needs real frame/local addressing rather than a single register file.
type Frame struct {
	Index      int
	Program    *Program
	PC         uint16
	Locals     []*Value
	validLocal []bool

	HasCaller  bool
	CallerPC   uint16
	CallerIdx  int
}

func NewFrame(index int, program *Program, numLocals int) *Frame {
	return &Frame{
		Index:      index,
		Program:    program,
		Locals:     make([]*Value, numLocals),
		validLocal: make([]bool, numLocals),
	}
}

func (f *Frame) IsInvalid(i int) bool { return i >= len(f.validLocal) || !f.validLocal[i] }

// SetLocal writes local i, growing the slot list when i is past its end.
func (f *Frame) SetLocal(i int, v *Value) {
	for len(f.Locals) <= i {
		f.Locals = append(f.Locals, nil)
		f.validLocal = append(f.validLocal, false)
	}
	f.Locals[i] = v
	f.validLocal[i] = true
}

func (f *Frame) ClearLocal(i int) {
	f.Locals[i] = nil
	f.validLocal[i] = false
}

func (f *Frame) CurrentInstruction() Instruction {
	return f.Program.Instructions[f.PC]
}

func (f *Frame) AtEnd() bool {
	return int(f.PC) >= len(f.Program.Instructions)
}
