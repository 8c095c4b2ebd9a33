package footprint

import (
	"encoding/json"

	"github.com/holiman/uint256"
)

// Footprint is one trace record: context, operand-stack height, the opcode
// encoding, and the typed operation payload. Grounded on
// witnessing/mod.rs::Footprint.
type Footprint struct {
	ModuleID      *string
	FunctionID    int
	PC            uint16
	FrameIndex    int
	StackPointer  int
	Encoded       EncodedInstruction
	Data          Operation
}

type footprintWire struct {
	ModuleID     *string         `json:"module_id"`
	FunctionID   int             `json:"function_id"`
	PC           uint16          `json:"pc"`
	FrameIndex   int             `json:"frame_index"`
	StackPointer int             `json:"stack_pointer"`
	Op           Opcode          `json:"op"`
	Aux0         *string         `json:"aux0,omitempty"`
	Aux1         *string         `json:"aux1,omitempty"`
	Data         json.RawMessage `json:"data"`
}

func auxString(v *uint256.Int) *string {
	if v == nil {
		return nil
	}
	s := v.Dec()
	return &s
}

func (f Footprint) MarshalJSON() ([]byte, error) {
	data, err := marshalOperation(f.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(footprintWire{
		ModuleID:     f.ModuleID,
		FunctionID:   f.FunctionID,
		PC:           f.PC,
		FrameIndex:   f.FrameIndex,
		StackPointer: f.StackPointer,
		Op:           f.Encoded.Op,
		Aux0:         auxString(f.Encoded.Aux0),
		Aux1:         auxString(f.Encoded.Aux1),
		Data:         data,
	})
}

func (f *Footprint) UnmarshalJSON(data []byte) error {
	var wire footprintWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	op, err := unmarshalOperation(wire.Data)
	if err != nil {
		return err
	}
	var aux0, aux1 *uint256.Int
	if wire.Aux0 != nil {
		v, err := uint256.FromDecimal(*wire.Aux0)
		if err != nil {
			return err
		}
		aux0 = v
	}
	if wire.Aux1 != nil {
		v, err := uint256.FromDecimal(*wire.Aux1)
		if err != nil {
			return err
		}
		aux1 = v
	}
	*f = Footprint{
		ModuleID:     wire.ModuleID,
		FunctionID:   wire.FunctionID,
		PC:           wire.PC,
		FrameIndex:   wire.FrameIndex,
		StackPointer: wire.StackPointer,
		Encoded:      EncodedInstruction{Op: wire.Op, Aux0: aux0, Aux1: aux1},
		Data:         op,
	}
	return nil
}

// Footprints is the aggregate a recorder builds over one entry call: the
// live pointer index plus the ordered record sequence the host serializes
// at function exit.
type Footprints struct {
	State *PointerIndex
	Data  []Footprint
}

func NewFootprints() *Footprints {
	return &Footprints{State: NewPointerIndex()}
}

func (fp *Footprints) append(rec Footprint) {
	fp.Data = append(fp.Data, rec)
}
