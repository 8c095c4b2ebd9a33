package values

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// MaxSubIndexDepth bounds the nesting depth a SubIndex can address. Depth 8
// exceeds realistic aggregate nesting in this domain; going past it is a
// caller bug, not a runtime condition.
const MaxSubIndexDepth = 8

// SubIndex is a path identifying a position inside a flattened aggregate: a
// bounded sequence of small unsigned integers, plus its own real length.
// Keeping length explicit (rather than deriving it from "highest non-zero
// slot") lets a path legitimately contain trailing zero entries — e.g. the
// root item's sentinel path [0], or a struct's first field at [0,0] — while
// still supporting the separate trim-trailing-zeros convention that
// Reference.RefChild and Concat use, via Trimmed.
type SubIndex struct {
	path  [MaxSubIndexDepth]uint16
	depth uint8
}

// NewSubIndex builds a SubIndex from its elements.
func NewSubIndex(parts ...int) SubIndex {
	if len(parts) > MaxSubIndexDepth {
		panic(fmt.Sprintf("values: sub-index depth %d exceeds max %d", len(parts), MaxSubIndexDepth))
	}
	var s SubIndex
	for i, p := range parts {
		s.path[i] = uint16(p)
	}
	s.depth = uint8(len(parts))
	return s
}

// Depth is the real number of elements in the path (0 for the root/empty path).
func (s SubIndex) Depth() int { return int(s.depth) }

func (s SubIndex) IsRoot() bool { return s.depth == 0 }

// ToSlice returns the path elements as plain ints.
func (s SubIndex) ToSlice() []int {
	out := make([]int, s.depth)
	for i := 0; i < int(s.depth); i++ {
		out[i] = int(s.path[i])
	}
	return out
}

// Push appends v after the last element.
func (s SubIndex) Push(v int) SubIndex {
	if int(s.depth) >= MaxSubIndexDepth {
		panic("values: sub-index push overflows max depth")
	}
	s.path[s.depth] = uint16(v)
	s.depth++
	return s
}

// Insert inserts v at position i, shifting later entries right.
func (s SubIndex) Insert(i, v int) SubIndex {
	d := int(s.depth)
	if i < 0 || i > d {
		panic("values: sub-index insert index out of range")
	}
	slice := s.ToSlice()
	slice = append(slice[:i:i], append([]int{v}, slice[i:]...)...)
	return NewSubIndex(slice...)
}

// Remove deletes the entry at position i, shifting later entries left.
func (s SubIndex) Remove(i int) SubIndex {
	d := int(s.depth)
	if i < 0 || i >= d {
		panic("values: sub-index remove index out of range")
	}
	slice := s.ToSlice()
	slice = append(slice[:i:i], slice[i+1:]...)
	return NewSubIndex(slice...)
}

// Parents returns every strict ancestor path, nearest first.
func (s SubIndex) Parents() []SubIndex {
	d := int(s.depth)
	slice := s.ToSlice()
	out := make([]SubIndex, 0, d)
	for n := d - 1; n >= 0; n-- {
		out = append(out, NewSubIndex(slice[:n]...))
	}
	return out
}

// Trimmed strips trailing zero entries. Used by RefChild and Concat, which
// treat a trailing zero (real or padding) as "not yet specific" — the
// canonical place a shared-container pointer is recorded before a concrete
// child index is appended.
func (s SubIndex) Trimmed() SubIndex {
	d := int(s.depth)
	for d > 0 && s.path[d-1] == 0 {
		d--
	}
	return NewSubIndex(s.ToSlice()[:d]...)
}

// Concat trims trailing zeros from s, then appends other's path.
func (s SubIndex) Concat(other SubIndex) SubIndex {
	trimmed := s.Trimmed()
	combined := append(trimmed.ToSlice(), other.ToSlice()...)
	if len(combined) > MaxSubIndexDepth {
		panic("values: sub-index concat overflows max depth")
	}
	return NewSubIndex(combined...)
}

// Encode packs the path into a single 256-bit word: slot i occupies bits
// [16i, 16i+16), little-endian. Depth is not encoded, so DecodeSubIndex
// takes it as an argument.
func (s SubIndex) Encode() *uint256.Int {
	var out uint256.Int
	for i := 0; i < int(s.depth); i++ {
		if s.path[i] == 0 {
			continue
		}
		var word uint256.Int
		word.SetUint64(uint64(s.path[i]))
		word.Lsh(&word, uint(16*i))
		out.Or(&out, &word)
	}
	return &out
}

// DecodeSubIndex is the inverse of Encode, for a path of the given depth.
func DecodeSubIndex(v *uint256.Int, depth int) SubIndex {
	var s SubIndex
	mask := uint256.NewInt(0xFFFF)
	for i := 0; i < depth; i++ {
		var word uint256.Int
		word.Rsh(v, uint(16*i))
		word.And(&word, mask)
		s.path[i] = uint16(word.Uint64())
	}
	s.depth = uint8(depth)
	return s
}

func (s SubIndex) String() string {
	return fmt.Sprintf("%v", s.ToSlice())
}

func (s SubIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToSlice())
}

func (s *SubIndex) UnmarshalJSON(data []byte) error {
	var parts []int
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*s = NewSubIndex(parts...)
	return nil
}
