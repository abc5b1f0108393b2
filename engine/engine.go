// Package engine selects an execution backend and runs programs on it.
package engine

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfjit/compiler"
	"github.com/chazu/bfjit/jit"
	"github.com/chazu/bfjit/vm"
)

var log = commonlog.GetLogger("bfjit.engine")

// ---------------------------------------------------------------------------
// Backend: interface for execution backends
// ---------------------------------------------------------------------------

// Backend executes compiled ops against its own input and output.
type Backend interface {
	// Exec runs ops on a fresh tape.
	Exec(ops []compiler.Op) error

	// Seed writes data at offset from the start pointer before each run.
	Seed(offset int, data []byte)

	// Tape returns the tape left by the most recent run.
	Tape() *vm.Tape

	// Name returns the name of this backend.
	Name() string
}

// Kind names a backend choice.
type Kind string

const (
	Interp Kind = "interp"
	JIT    Kind = "jit"
	Auto   Kind = "auto" // JIT, or the interpreter when fallback is allowed
)

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Interp, JIT, Auto:
		return k, nil
	case "":
		return Auto, nil
	}
	return "", fmt.Errorf("unknown backend %q (want interp, jit or auto)", s)
}

type interpBackend struct {
	*vm.Interpreter
}

func (interpBackend) Name() string { return string(Interp) }

type jitBackend struct {
	*jit.JIT
}

func (jitBackend) Name() string { return string(JIT) }

// NewBackend creates the backend named by kind. Auto prefers the JIT; when
// the JIT reports an unsupported target, Auto uses the interpreter only if
// fallback is set, and logs that it did.
func NewBackend(kind Kind, fallback bool, in vm.ByteSource, out vm.ByteSink) (Backend, error) {
	switch kind {
	case Interp:
		return interpBackend{vm.NewInterpreter(in, out)}, nil

	case JIT, Auto:
		j, err := jit.New(in, out)
		if err == nil {
			return jitBackend{j}, nil
		}
		var uerr *jit.UnsupportedTargetError
		if kind == Auto && fallback && errors.As(err, &uerr) {
			log.Warningf("%s; falling back to the interpreter", err)
			return interpBackend{vm.NewInterpreter(in, out)}, nil
		}
		return nil, err
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Options controls compilation and backend selection.
type Options struct {
	Backend  Kind
	Fallback bool
	Optimize bool
}

// DefaultOptions returns the JIT with all passes and no fallback.
func DefaultOptions() Options {
	return Options{Backend: Auto, Optimize: true}
}

// Result describes a completed or failed run.
type Result struct {
	Backend string   // name of the backend that ran, empty if none did
	Ops     int      // length of the compiled program
	Tape    *vm.Tape // final tape, nil if the run never started
}

// Run compiles source and executes it. Parse errors are reported before a
// backend is chosen, so a malformed program never reaches the JIT.
func Run(source []byte, opts Options, in vm.ByteSource, out vm.ByteSink) (*Result, error) {
	ops, err := compiler.CompileWithOptions(source, compiler.Options{Optimize: opts.Optimize})
	if err != nil {
		return &Result{}, err
	}
	res := &Result{Ops: len(ops)}

	b, err := NewBackend(opts.Backend, opts.Fallback, in, out)
	if err != nil {
		return res, err
	}
	res.Backend = b.Name()
	log.Debugf("running %d ops on %s", len(ops), res.Backend)

	err = b.Exec(ops)
	res.Tape = b.Tape()
	return res, err
}
