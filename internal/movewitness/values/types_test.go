package values

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestIntegerJSONRoundTrip(t *testing.T) {
	cases := []Integer{
		IntegerU8(7),
		IntegerU16(300),
		IntegerU32(70000),
		IntegerU64(1 << 40),
		IntegerU128(uint256.NewInt(123456789)),
		IntegerU256(uint256.MustFromDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935")),
	}
	for _, n := range cases {
		data, err := n.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%s): %v", n.Width(), err)
		}
		var out Integer
		if err := out.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s) %s: %v", n.Width(), data, err)
		}
		if !out.Equal(n) {
			t.Errorf("round trip %s: got %v, want %v", n.Width(), out.Uint256(), n.Uint256())
		}
	}
}

func TestSimpleValueJSONRoundTrip(t *testing.T) {
	addr := Address{0xde, 0xad, 0xbe, 0xef}
	cases := []SimpleValue{
		SimpleFromInteger(IntegerU64(42)),
		SimpleFromBool(true),
		SimpleFromAddress(addr),
		SimpleFromReference(NewReference(1, 2, NewSubIndex(0, 1))),
	}
	for _, v := range cases {
		data, err := v.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%d): %v", v.Kind, err)
		}
		var out SimpleValue
		if err := out.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%d) %s: %v", v.Kind, data, err)
		}
		if out.Kind != v.Kind {
			t.Fatalf("round trip kind = %d, want %d", out.Kind, v.Kind)
		}
	}
}

func TestAddressJSONRoundTrip(t *testing.T) {
	a := Address{0x01, 0x02, 0x03}
	data, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out Address
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if out != a {
		t.Fatalf("round trip = %x, want %x", out, a)
	}
}
