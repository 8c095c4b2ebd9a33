// Package movewitness provides the public API for the execution-trace
// witnessing subsystem of a stack-based bytecode virtual machine.
//
// A recording session wraps the interpreter, observes every instruction it
// retires, and builds an ordered, serializable trace ("footprint stream")
// sufficient to reconstruct the full value-flow of a call off-line. The
// intended downstream use is building a zero-knowledge witness for the
// execution.
//
// # Features
//
// - Flattens arbitrarily nested aggregate values into a stable, relocatable
// item sequence
// - Keeps a live pointer index mapping raw container addresses back to
// (frame, local, path) coordinates
// - Records a typed operation payload per instruction, covering stack ops,
// locals, struct and vector operations, references, and control flow
// - Serializes the trace as JSON with a stable, externally-tagged schema
//
// # Quick Start
//
// Recording a call and persisting the resulting witness:
//
//	resolver := movewitness.NewStaticResolver()
//	resolver.Functions[0] = someProgram
//
//	session, err := movewitness.NewSession(resolver, movewitness.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := session.Run(someProgram, nil); err != nil {
//		log.Fatal(err)
//	}
//
//	path, err := session.WriteWitness("my_script")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("witness saved at", path)
//
// # Architecture
//
// movewitness uses a hybrid public/private architecture:
//
//   - pkg/movewitness/: Public API (this package)
//   - internal/movewitness/: Private implementation (not importable)
//
// The public API provides stable interfaces for driving a recording session
// and persisting its output. internal/movewitness/values implements the
// value flattener and reference resolver, internal/movewitness/footprint
// implements the pointer index, recorder, and event schema, and
// internal/movewitness/interp implements the interpreter the recorder
// observes.
//
// # Non-goals
//
// Global-resource instructions (MoveTo, MoveFrom, Exists, the *BorrowGlobal
// family) are unsupported: recording one fails the session with
// ErrUnsupportedInstruction. Witness semantics for global storage are
// undefined here; this package only witnesses local-frame execution.
package movewitness
