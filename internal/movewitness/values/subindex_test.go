package values

import (
	"reflect"
	"testing"
)

func TestSubIndexPushAndToSlice(t *testing.T) {
	s := NewSubIndex(0)
	s = s.Push(0)
	if got := s.ToSlice(); !reflect.DeepEqual(got, []int{0, 0}) {
		t.Fatalf("ToSlice() = %v, want [0 0]", got)
	}
	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
}

func TestSubIndexTrimmed(t *testing.T) {
	cases := []struct {
		in   SubIndex
		want []int
	}{
		{NewSubIndex(0), []int{}},
		{NewSubIndex(0, 0), []int{}},
		{NewSubIndex(0, 1), []int{0, 1}},
		{NewSubIndex(2, 0, 0), []int{2}},
		{NewSubIndex(), []int{}},
	}
	for _, c := range cases {
		got := c.in.Trimmed().ToSlice()
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Trimmed(%v).ToSlice() = %v, want %v", c.in.ToSlice(), got, c.want)
		}
	}
}

func TestSubIndexEncodeDecodeRoundTrip(t *testing.T) {
	s := NewSubIndex(1, 2, 3)
	encoded := s.Encode()
	decoded := DecodeSubIndex(encoded, s.Depth())
	if !reflect.DeepEqual(decoded.ToSlice(), s.ToSlice()) {
		t.Fatalf("round trip = %v, want %v", decoded.ToSlice(), s.ToSlice())
	}
}

func TestSubIndexConcat(t *testing.T) {
	base := NewSubIndex(0, 0) // container pointer recorded, trailing zero marker
	child := base.Concat(NewSubIndex(3))
	if !reflect.DeepEqual(child.ToSlice(), []int{3}) {
		t.Fatalf("Concat = %v, want [3]", child.ToSlice())
	}
}

func TestSubIndexInsertRemove(t *testing.T) {
	s := NewSubIndex(1, 2, 3)
	inserted := s.Insert(1, 9)
	if !reflect.DeepEqual(inserted.ToSlice(), []int{1, 9, 2, 3}) {
		t.Fatalf("Insert = %v, want [1 9 2 3]", inserted.ToSlice())
	}
	removed := inserted.Remove(1)
	if !reflect.DeepEqual(removed.ToSlice(), s.ToSlice()) {
		t.Fatalf("Remove did not invert Insert: got %v, want %v", removed.ToSlice(), s.ToSlice())
	}
}

func TestSubIndexParents(t *testing.T) {
	s := NewSubIndex(1, 2, 3)
	parents := s.Parents()
	want := [][]int{{1, 2}, {1}, {}}
	if len(parents) != len(want) {
		t.Fatalf("Parents() len = %d, want %d", len(parents), len(want))
	}
	for i, p := range parents {
		if !reflect.DeepEqual(p.ToSlice(), want[i]) {
			t.Errorf("Parents()[%d] = %v, want %v", i, p.ToSlice(), want[i])
		}
	}
}

func TestSubIndexJSONRoundTrip(t *testing.T) {
	s := NewSubIndex(0, 1)
	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != "[0,1]" {
		t.Fatalf("MarshalJSON = %s, want [0,1]", data)
	}
	var out SubIndex
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !reflect.DeepEqual(out.ToSlice(), s.ToSlice()) {
		t.Fatalf("round trip = %v, want %v", out.ToSlice(), s.ToSlice())
	}
}
