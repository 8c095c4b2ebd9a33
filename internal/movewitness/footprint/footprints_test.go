package footprint

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"

	"github.com/vybium/movewitness/internal/movewitness/values"
)

func TestFootprintRoundTripPop(t *testing.T) {
	fp := Footprint{
		FunctionID:   3,
		PC:           5,
		FrameIndex:   0,
		StackPointer: 1,
		Encoded:      encodeBare(OpcodePop),
		Data: OpPop{PopedValue: values.ValueItems{
			{Header: false, SubIndex: values.NewSubIndex(), Value: values.SimpleFromInteger(values.IntegerU64(9))},
		}},
	}

	raw, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Footprint
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.PC != 5 || out.FunctionID != 3 {
		t.Fatalf("header fields lost: %+v", out)
	}
	popped, ok := out.Data.(OpPop)
	if !ok {
		t.Fatalf("data decoded as %T, want OpPop", out.Data)
	}
	if popped.PopedValue[0].Value.Int.Uint64() != 9 {
		t.Fatalf("poped_value = %v, want 9", popped.PopedValue[0].Value.Int.Uint64())
	}
}

func TestFootprintRoundTripStLocNilOldLocal(t *testing.T) {
	fp := Footprint{
		Encoded: encodeAux0(OpcodeStLoc, 0),
		Data: OpStLoc{
			LocalIndex: 0,
			OldLocal:   nil,
			NewValue: values.ValueItems{
				{Header: false, SubIndex: values.NewSubIndex(), Value: values.SimpleFromBool(true)},
			},
		},
	}

	raw, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Footprint
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	st, ok := out.Data.(OpStLoc)
	if !ok {
		t.Fatalf("data decoded as %T, want OpStLoc", out.Data)
	}
	if st.OldLocal != nil {
		t.Fatalf("old_local = %+v, want nil", st.OldLocal)
	}
	if !st.NewValue[0].Value.Bool {
		t.Fatalf("new_value lost")
	}
}

func TestFootprintRoundTripAux256LiteralViaOpcode(t *testing.T) {
	twoPow128, err := uint256.FromDecimal("340282366920938463463374607431768211456") // 2^128
	if err != nil {
		t.Fatalf("parsing literal: %v", err)
	}
	fp := Footprint{
		Encoded: encodeLdU256(twoPow128),
		Data:    OpLdSimple{Value: values.IntegerU256(twoPow128)},
	}
	raw, err := json.Marshal(fp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Footprint
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Encoded.Aux0.Uint64() != 0 {
		t.Fatalf("aux0 (low 128 bits) = %v, want 0", out.Encoded.Aux0)
	}
	if out.Encoded.Aux1.Uint64() != 1 {
		t.Fatalf("aux1 (high 128 bits) = %v, want 1", out.Encoded.Aux1)
	}
}
