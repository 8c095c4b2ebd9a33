package movewitness

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vybium/movewitness/internal/movewitness/footprint"
	"github.com/vybium/movewitness/internal/movewitness/interp"
)

// Session is the public interface for a single recorded entry call: drive
// the interpreter, then inspect or persist the resulting trace.
type Session interface {
	// Run interprets program to completion (or first error), starting a new
	// top-level frame seeded with args.
	Run(program *Program, args []*Value) error

	// Footprints returns the trace accumulated so far.
	Footprints() *Footprints

	// WriteWitness serializes Footprints().Data as pretty-printed JSON to a
	// new file under BuildDir's parent "witnesses" directory, named
	// "<scriptName>-<unix-millis>.json". The file must not already exist.
	// It returns the path written.
	WriteWitness(scriptName string) (string, error)
}

// sessionImpl is the internal implementation of Session.
type sessionImpl struct {
	machine  *interp.Machine
	recorder *footprint.Recorder
	config   *Config
}

// NewSession creates a recording session bound to resolver for static
// program metadata (callee bodies, struct field layout).
func NewSession(resolver Resolver, config *Config) (Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, &FootprintError{Code: ErrInvalidConfig, Message: err.Error(), Cause: err}
	}

	rec := footprint.NewRecorder(config.Logger)
	return &sessionImpl{
		machine:  interp.NewMachine(rec, resolver),
		recorder: rec,
		config:   config,
	}, nil
}

// Run interprets program to completion, wrapping any fatal recorder error
// into a FootprintError classified by its RecorderError code.
func (s *sessionImpl) Run(program *Program, args []*Value) error {
	if err := s.machine.Run(program, args); err != nil {
		var rerr *footprint.RecorderError
		if errors.As(err, &rerr) {
			return &FootprintError{Code: recorderErrorCode(rerr.Code), Message: rerr.Message, Cause: err}
		}
		return &FootprintError{Code: ErrUnknown, Message: "execution failed", Cause: err}
	}
	return nil
}

// Footprints returns the trace accumulated so far.
func (s *sessionImpl) Footprints() *Footprints { return s.recorder.Footprints() }

// WriteWitness persists the recorded operation sequence to a new JSON file
// under BuildDir's parent "witnesses" directory.
func (s *sessionImpl) WriteWitness(scriptName string) (string, error) {
	witnessDir := filepath.Join(filepath.Dir(s.config.BuildDir), "witnesses")
	if err := os.MkdirAll(witnessDir, 0o755); err != nil {
		return "", &FootprintError{Code: ErrIO, Message: "creating witness directory", Cause: err}
	}

	name := fmt.Sprintf("%s-%d.json", scriptName, time.Now().UnixMilli())
	path := filepath.Join(witnessDir, name)

	payload, err := json.MarshalIndent(s.recorder.Footprints().Data, "", "  ")
	if err != nil {
		return "", &FootprintError{Code: ErrIO, Message: "marshaling witness", Cause: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &FootprintError{Code: ErrIO, Message: "opening witness file", Cause: err}
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		return "", &FootprintError{Code: ErrIO, Message: "writing witness file", Cause: err}
	}
	return path, nil
}
