// Package values implements the flattening data model of the footprint
// recorder: leaf value variants, the bounded-depth sub-index path, the
// stable (frame, local, path) reference coordinate, and the visitor
// machinery (C1, C2) that turns a runtime value into an ordered ValueItems
// stream.
package values

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// Width identifies the declared bit-width of an integer-family SimpleValue
// or Integer. Every width shares a single 256-bit backing word so header
// packing and arithmetic share one code path instead of six.
type Width uint8

const (
	Width8 Width = iota
	Width16
	Width32
	Width64
	Width128
	Width256
)

func (w Width) String() string {
	switch w {
	case Width8:
		return "U8"
	case Width16:
		return "U16"
	case Width32:
		return "U32"
	case Width64:
		return "U64"
	case Width128:
		return "U128"
	case Width256:
		return "U256"
	default:
		return fmt.Sprintf("Width(%d)", uint8(w))
	}
}

// Integer is the integer-only subset of SimpleValue: the six unsigned
// widths the VM's arithmetic, shift, and cast instructions operate over.
type Integer struct {
	width Width
	value uint256.Int
}

func IntegerU8(v uint8) Integer   { return Integer{width: Width8, value: *uint256.NewInt(uint64(v))} }
func IntegerU16(v uint16) Integer { return Integer{width: Width16, value: *uint256.NewInt(uint64(v))} }
func IntegerU32(v uint32) Integer { return Integer{width: Width32, value: *uint256.NewInt(uint64(v))} }
func IntegerU64(v uint64) Integer { return Integer{width: Width64, value: *uint256.NewInt(v)} }

func IntegerU128(v *uint256.Int) Integer {
	var c uint256.Int
	c.Set(v)
	return Integer{width: Width128, value: c}
}

func IntegerU256(v *uint256.Int) Integer {
	var c uint256.Int
	c.Set(v)
	return Integer{width: Width256, value: c}
}

func (n Integer) Width() Width { return n.width }

// Uint256 returns a copy of the backing word; mutating it leaves n unchanged.
func (n Integer) Uint256() *uint256.Int {
	c := n.value
	return &c
}

// Uint64 truncates the backing word. Only meaningful for widths <= 64;
// callers that need the full value for U128/U256 should use Uint256.
func (n Integer) Uint64() uint64 { return n.value.Uint64() }

func (n Integer) Equal(other Integer) bool {
	return n.width == other.width && n.value.Eq(&other.value)
}

func (n Integer) MarshalJSON() ([]byte, error) {
	payload, err := marshalIntegerPayload(n.width, &n.value)
	if err != nil {
		return nil, err
	}
	return marshalTagged(n.width.String(), json.RawMessage(payload))
}

func (n *Integer) UnmarshalJSON(data []byte) error {
	tag, raw, err := unmarshalTagged(data)
	if err != nil {
		return err
	}
	width, err := widthFromTag(tag)
	if err != nil {
		return err
	}
	val, err := unmarshalIntegerPayload(width, raw)
	if err != nil {
		return err
	}
	n.width = width
	n.value = *val
	return nil
}

func widthFromTag(tag string) (Width, error) {
	switch tag {
	case "U8":
		return Width8, nil
	case "U16":
		return Width16, nil
	case "U32":
		return Width32, nil
	case "U64":
		return Width64, nil
	case "U128":
		return Width128, nil
	case "U256":
		return Width256, nil
	default:
		return 0, fmt.Errorf("values: unknown integer tag %q", tag)
	}
}

func marshalIntegerPayload(w Width, v *uint256.Int) ([]byte, error) {
	switch w {
	case Width8, Width16, Width32, Width64:
		return json.Marshal(v.Uint64())
	default:
		return json.Marshal(v.Dec())
	}
}

func unmarshalIntegerPayload(w Width, raw json.RawMessage) (*uint256.Int, error) {
	switch w {
	case Width8, Width16, Width32, Width64:
		var n uint64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return uint256.NewInt(n), nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		v, err := uint256.FromDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("values: decoding %s literal %q: %w", w, s, err)
		}
		return v, nil
	}
}

// Address is a fixed-width, 20-byte account identifier.
type Address [20]byte

func (a Address) String() string {
	return fmt.Sprintf("0x%x", [20]byte(a))
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	var decoded []byte
	if _, err := fmt.Sscanf(s, "%x", &decoded); err != nil {
		return fmt.Errorf("values: decoding address %q: %w", s, err)
	}
	if len(decoded) != len(a) {
		return fmt.Errorf("values: address %q has %d bytes, want %d", s, len(decoded), len(a))
	}
	copy(a[:], decoded)
	return nil
}

// SimpleKind tags the variant carried by a SimpleValue.
type SimpleKind uint8

const (
	KindU8 SimpleKind = iota
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindBool
	KindAddress
	KindReference
)

// SimpleValue is a leaf value: one of the six integer widths, a bool, an
// address, or a reference coordinate. Only the field matching Kind is
// meaningful.
type SimpleValue struct {
	Kind      SimpleKind
	Int       Integer
	Bool      bool
	Address   Address
	Reference Reference
}

func kindForWidth(w Width) SimpleKind {
	switch w {
	case Width8:
		return KindU8
	case Width16:
		return KindU16
	case Width32:
		return KindU32
	case Width64:
		return KindU64
	case Width128:
		return KindU128
	default:
		return KindU256
	}
}

func SimpleFromInteger(n Integer) SimpleValue {
	return SimpleValue{Kind: kindForWidth(n.Width()), Int: n}
}

func SimpleFromBool(b bool) SimpleValue {
	return SimpleValue{Kind: KindBool, Bool: b}
}

func SimpleFromAddress(a Address) SimpleValue {
	return SimpleValue{Kind: KindAddress, Address: a}
}

func SimpleFromReference(r Reference) SimpleValue {
	return SimpleValue{Kind: KindReference, Reference: r}
}

// AsInteger converts an integer-family SimpleValue back to an Integer. It
// is an error to call this on Bool/Address/Reference variants.
func (v SimpleValue) AsInteger() (Integer, error) {
	switch v.Kind {
	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		return v.Int, nil
	default:
		return Integer{}, fmt.Errorf("values: SimpleValue kind %d is not an integer", v.Kind)
	}
}

func (v SimpleValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		payload, err := marshalIntegerPayload(v.Int.Width(), &v.Int.value)
		if err != nil {
			return nil, err
		}
		return marshalTagged(v.Int.Width().String(), json.RawMessage(payload))
	case KindBool:
		payload, err := json.Marshal(v.Bool)
		if err != nil {
			return nil, err
		}
		return marshalTagged("Bool", json.RawMessage(payload))
	case KindAddress:
		payload, err := json.Marshal(v.Address)
		if err != nil {
			return nil, err
		}
		return marshalTagged("Address", json.RawMessage(payload))
	case KindReference:
		payload, err := json.Marshal(v.Reference)
		if err != nil {
			return nil, err
		}
		return marshalTagged("Reference", json.RawMessage(payload))
	default:
		return nil, fmt.Errorf("values: unknown SimpleValue kind %d", v.Kind)
	}
}

func (v *SimpleValue) UnmarshalJSON(data []byte) error {
	tag, raw, err := unmarshalTagged(data)
	if err != nil {
		return err
	}
	switch tag {
	case "Bool":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		*v = SimpleFromBool(b)
		return nil
	case "Address":
		var a Address
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		*v = SimpleFromAddress(a)
		return nil
	case "Reference":
		var r Reference
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		*v = SimpleFromReference(r)
		return nil
	default:
		width, err := widthFromTag(tag)
		if err != nil {
			return err
		}
		word, err := unmarshalIntegerPayload(width, raw)
		if err != nil {
			return err
		}
		*v = SimpleFromInteger(Integer{width: width, value: *word})
		return nil
	}
}

// marshalTagged renders an externally-tagged single-field enum: {"Tag":payload},
// matching the wire shape serde produces for a Rust enum so witness files stay
// readable across both implementations.
func marshalTagged(tag string, payload json.RawMessage) ([]byte, error) {
	out := make([]byte, 0, len(tag)+len(payload)+8)
	out = append(out, '{', '"')
	out = append(out, tag...)
	out = append(out, '"', ':')
	out = append(out, payload...)
	out = append(out, '}')
	return out, nil
}

func unmarshalTagged(data []byte) (tag string, payload json.RawMessage, err error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, err
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("values: expected exactly one tagged field, got %d", len(m))
	}
	for k, v := range m {
		tag, payload = k, v
	}
	return tag, payload, nil
}
