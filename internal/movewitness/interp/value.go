package interp

import (
	"unsafe"

	"github.com/holiman/uint256"

	"github.com/vybium/movewitness/internal/movewitness/values"
)

// ValueKind tags the runtime shape a Value holds.
type ValueKind uint8

const (
	KindSimple ValueKind = iota
	KindStruct
	KindVector
	KindReference
)

// container backs a struct or vector's field list behind a stable pointer, so
// its address survives independent of the Value wrapper holding it — the
// same container can be referenced from more than one local.
type container struct {
	fields   []*Value
	isVector bool
}

// Value is the interpreter's runtime cell: what sits on the operand stack or
// in a local slot. A struct/vector wraps a *container (shared, addressable);
// a reference names either a whole container or one of its elements.
type Value struct {
	kind ValueKind

	simple values.SimpleValue

	agg *container

	refTarget *container
	refIndex  *int
	refGlobal bool
}

func NewSimple(v values.SimpleValue) *Value { return &Value{kind: KindSimple, simple: v} }

func NewU8(v uint8) *Value   { return NewSimple(values.SimpleFromInteger(values.IntegerU8(v))) }
func NewU16(v uint16) *Value { return NewSimple(values.SimpleFromInteger(values.IntegerU16(v))) }
func NewU32(v uint32) *Value { return NewSimple(values.SimpleFromInteger(values.IntegerU32(v))) }
func NewU64(v uint64) *Value { return NewSimple(values.SimpleFromInteger(values.IntegerU64(v))) }
func NewU128(v *uint256.Int) *Value {
	return NewSimple(values.SimpleFromInteger(values.IntegerU128(v)))
}
func NewU256(v *uint256.Int) *Value {
	return NewSimple(values.SimpleFromInteger(values.IntegerU256(v)))
}
func NewBool(v bool) *Value { return NewSimple(values.SimpleFromBool(v)) }

func NewStruct(fields []*Value) *Value {
	return &Value{kind: KindStruct, agg: &container{fields: fields}}
}

func NewVector(elems []*Value) *Value {
	return &Value{kind: KindVector, agg: &container{fields: elems, isVector: true}}
}

// NewContainerRef builds a reference to the whole aggregate target points at.
func NewContainerRef(target *Value, isGlobal bool) *Value {
	return &Value{kind: KindReference, refTarget: target.agg, refGlobal: isGlobal}
}

// NewIndexedRef builds a reference to element idx of the vector target points
// at (a Move VecImmBorrow/VecMutBorrow result).
func NewIndexedRef(target *Value, idx int, isGlobal bool) *Value {
	i := idx
	return &Value{kind: KindReference, refTarget: target.agg, refIndex: &i, refGlobal: isGlobal}
}

func (v *Value) IsReference() bool { return v.kind == KindReference }

// Addr returns the stable identity of the aggregate a struct/vector value
// wraps. unsafe.Pointer is the only way to obtain that identity in Go — no
// ecosystem library substitutes for language-level pointer equality, so this
// one spot stays on the standard library by necessity rather than choice.
func (v *Value) Addr() uintptr {
	if v.agg == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(v.agg))
}

func (v *Value) AsInteger() (values.Integer, error) { return v.simple.AsInteger() }
func (v *Value) AsBool() bool                       { return v.simple.Bool }
func (v *Value) Fields() []*Value { return v.agg.fields }
func (v *Value) Len() int         { return len(v.agg.fields) }

// Deref resolves a reference value to the Value it currently names: the
// whole target aggregate, or one element of it if the reference is indexed.
func (v *Value) Deref() *Value {
	if v.refIndex != nil {
		return v.refTarget.fields[*v.refIndex]
	}
	kind := KindStruct
	if v.refTarget.isVector {
		kind = KindVector
	}
	return &Value{kind: kind, agg: v.refTarget}
}

func (v *Value) Accept(visitor values.ValueVisitor, depth int) {
	switch v.kind {
	case KindSimple:
		acceptSimple(v.simple, visitor, depth)
	case KindStruct, KindVector:
		visitor.VisitContainer(v.Addr(), depth)
		var descend bool
		if v.kind == KindStruct {
			descend = visitor.VisitStruct(depth, len(v.agg.fields))
		} else {
			descend = visitor.VisitVec(depth, len(v.agg.fields))
		}
		if descend {
			for _, f := range v.agg.fields {
				f.Accept(visitor, depth+1)
			}
		}
	case KindReference:
		if !visitor.VisitRef(depth, v.refGlobal) {
			return
		}
		addr := uintptr(unsafe.Pointer(v.refTarget))
		if v.refIndex != nil {
			visitor.VisitIndexed(addr, depth, *v.refIndex)
		} else {
			visitor.VisitContainer(addr, depth+1)
		}
	}
}

func acceptSimple(sv values.SimpleValue, visitor values.ValueVisitor, depth int) {
	switch sv.Kind {
	case values.KindU8:
		visitor.VisitU8(depth, uint8(sv.Int.Uint64()))
	case values.KindU16:
		visitor.VisitU16(depth, uint16(sv.Int.Uint64()))
	case values.KindU32:
		visitor.VisitU32(depth, uint32(sv.Int.Uint64()))
	case values.KindU64:
		visitor.VisitU64(depth, sv.Int.Uint64())
	case values.KindU128:
		visitor.VisitU128(depth, sv.Int.Uint256())
	case values.KindU256:
		visitor.VisitU256(depth, sv.Int.Uint256())
	case values.KindBool:
		visitor.VisitBool(depth, sv.Bool)
	case values.KindAddress:
		visitor.VisitAddress(depth, sv.Address)
	default:
		panic("interp: reference cannot be a field of a container")
	}
}
