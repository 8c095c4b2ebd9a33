package movewitness

import (
	"errors"
	"strings"
	"testing"
)

func TestFootprintErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := &FootprintError{Code: ErrIO, Message: "writing witness file", Cause: cause}

	got := err.Error()
	if !strings.Contains(got, cause.Error()) {
		t.Fatalf("Error() = %q, want it to include the cause %q", got, cause.Error())
	}
	if !errors.Is(err, err) {
		t.Fatalf("an error must always match itself under errors.Is")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}

func TestFootprintErrorIsMatchesByCode(t *testing.T) {
	a := &FootprintError{Code: ErrUnsupportedInstruction, Message: "first"}
	b := &FootprintError{Code: ErrUnsupportedInstruction, Message: "second"}
	c := &FootprintError{Code: ErrPointerLookupMiss, Message: "third"}

	if !errors.Is(a, b) {
		t.Fatalf("errors with the same code should match under errors.Is")
	}
	if errors.Is(a, c) {
		t.Fatalf("errors with different codes should not match under errors.Is")
	}
}

func TestRecorderErrorCodeMapping(t *testing.T) {
	cases := map[string]ErrorCode{
		"UnsupportedInstruction": ErrUnsupportedInstruction,
		"InvalidVisitorState":    ErrInvalidVisitorState,
		"PointerLookupMiss":      ErrPointerLookupMiss,
		"SomethingElse":          ErrUnknown,
	}
	for in, want := range cases {
		if got := recorderErrorCode(in); got != want {
			t.Fatalf("recorderErrorCode(%q) = %v, want %v", in, got, want)
		}
	}
}
