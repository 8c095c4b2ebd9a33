package interp

// Resolver stands in for the bytecode loader's field-offset/function-lookup
// services. The witnessing layer only ever needs small integer facts out of
// it — a function's code, a struct's field count, a field's offset — never
// the loaded types themselves.
type Resolver interface {
	FunctionAt(handleIdx uint16) *Program
	FieldCount(structDefIdx uint16) int
	FieldOffset(fieldHandleIdx uint16) int
}

// StaticResolver is a Resolver backed by plain maps, enough to drive a
// hand-assembled Program through the machine in tests and examples.
type StaticResolver struct {
	Functions    map[uint16]*Program
	FieldCounts  map[uint16]int
	FieldOffsets map[uint16]int
}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		Functions:    make(map[uint16]*Program),
		FieldCounts:  make(map[uint16]int),
		FieldOffsets: make(map[uint16]int),
	}
}

func (r *StaticResolver) FunctionAt(handleIdx uint16) *Program { return r.Functions[handleIdx] }
func (r *StaticResolver) FieldCount(structDefIdx uint16) int   { return r.FieldCounts[structDefIdx] }
func (r *StaticResolver) FieldOffset(fieldHandleIdx uint16) int {
	return r.FieldOffsets[fieldHandleIdx]
}
