package movewitness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vybium/movewitness/internal/movewitness/interp"
)

func TestSessionRunAndFootprints(t *testing.T) {
	resolver := NewStaticResolver()
	session, err := NewSession(resolver, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	prog := interp.NewProgram(nil, 0).Add(
		interp.Instruction{Op: interp.OpLdU64, Num: 42},
		interp.Instruction{Op: interp.OpStLoc, LocalIndex: 0},
		interp.Instruction{Op: interp.OpRet},
	)

	if err := session.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data := session.Footprints().Data
	if len(data) != 3 {
		t.Fatalf("got %d footprints, want 3", len(data))
	}
}

func TestSessionRunUnsupportedInstructionIsClassified(t *testing.T) {
	resolver := NewStaticResolver()
	session, err := NewSession(resolver, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	prog := interp.NewProgram(nil, 0).Add(
		interp.Instruction{Op: interp.OpExists, HandleIdx: 0},
	)

	err = session.Run(prog, nil)
	if err == nil {
		t.Fatalf("expected an error from a global-resource instruction")
	}
	fe, ok := err.(*FootprintError)
	if !ok {
		t.Fatalf("error = %T, want *FootprintError", err)
	}
	if fe.Code != ErrUnsupportedInstruction {
		t.Fatalf("code = %v, want ErrUnsupportedInstruction", fe.Code)
	}
}

func TestSessionWriteWitnessRoundTrips(t *testing.T) {
	tmp := t.TempDir()
	config := DefaultConfig().WithBuildDir(filepath.Join(tmp, "build"))

	resolver := NewStaticResolver()
	session, err := NewSession(resolver, config)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	prog := interp.NewProgram(nil, 0).Add(
		interp.Instruction{Op: interp.OpLdU8, Num: 5},
		interp.Instruction{Op: interp.OpStLoc, LocalIndex: 0},
		interp.Instruction{Op: interp.OpRet},
	)
	if err := session.Run(prog, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	path, err := session.WriteWitness("my_script")
	if err != nil {
		t.Fatalf("WriteWitness: %v", err)
	}

	if filepath.Dir(path) != filepath.Join(tmp, "witnesses") {
		t.Fatalf("witness written to %s, want under %s", path, filepath.Join(tmp, "witnesses"))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading witness file: %v", err)
	}
	var records []Footprint
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("unmarshal witness: %v", err)
	}
	if len(records) != len(session.Footprints().Data) {
		t.Fatalf("round-tripped %d records, want %d", len(records), len(session.Footprints().Data))
	}

	// A second write made in a later millisecond gets a distinct,
	// newly-created file; it must never silently overwrite the first.
	time.Sleep(2 * time.Millisecond)
	path2, err := session.WriteWitness("my_script")
	if err != nil {
		t.Fatalf("second WriteWitness: %v", err)
	}
	if path2 == path {
		t.Fatalf("expected a distinct witness file path on the second write")
	}
}
