// Package jit compiles op sequences to native x86-64 code and runs them.
//
// Generated code owns the tape and the data pointer for the whole run and
// reaches the host only for input and output, through two bridge functions
// registered once per process. Code generation is portable; execution
// requires amd64 on Linux or macOS. On any other target New fails with an
// *UnsupportedTargetError before any code is generated.
package jit

import (
	"fmt"
	"io"
	"runtime"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfjit/compiler"
	"github.com/chazu/bfjit/vm"
)

var log = commonlog.GetLogger("bfjit.jit")

// UnsupportedTargetError reports that native execution is not available
// for the running platform.
type UnsupportedTargetError struct {
	GOOS   string
	GOARCH string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("jit: unsupported target %s/%s (need amd64 on linux or darwin)", e.GOOS, e.GOARCH)
}

// Platform hooks, replaced in tests to exercise other targets.
var (
	targetSupported = supported
	loadBridge      = nativeBridge
)

// Supported reports whether native execution is available.
func Supported() bool {
	return targetSupported
}

// JIT runs op sequences as native code.
type JIT struct {
	in     vm.ByteSource
	out    vm.ByteSink
	bridge Bridge

	seeds []vm.Seed
	tape  *vm.Tape // tape of the most recent run
}

// New creates a JIT reading from in and writing to out. A nil in behaves
// as vm.NoInput and a nil out discards output.
func New(in vm.ByteSource, out vm.ByteSink) (*JIT, error) {
	if !targetSupported {
		return nil, &UnsupportedTargetError{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
	}
	bridge, err := loadBridge()
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = vm.NoInput
	}
	if out == nil {
		out = vm.NewSink(io.Discard)
	}
	return &JIT{in: in, out: out, bridge: bridge}, nil
}

// Seed arranges for data to be written at offset from vm.StartPointer on
// the tape of every subsequent run.
func (j *JIT) Seed(offset int, data []byte) {
	j.seeds = append(j.seeds, vm.Seed{Offset: offset, Data: append([]byte(nil), data...)})
}

// Tape returns the tape of the most recent run, or nil before the first.
func (j *JIT) Tape() *vm.Tape {
	return j.tape
}

// Compile translates ops into machine code using this JIT's bridge.
func (j *JIT) Compile(ops []compiler.Op) ([]byte, error) {
	code, err := NewTranslator(j.bridge).Translate(ops)
	if err != nil {
		return nil, err
	}
	log.Debugf("translated %d ops into %d bytes", len(ops), len(code))
	return code, nil
}

// Exec compiles ops, runs them on a fresh tape and flushes the output once.
// I/O failures are reported as *vm.RuntimeIOError, exactly as the
// interpreter reports them.
func (j *JIT) Exec(ops []compiler.Op) error {
	code, err := j.Compile(ops)
	if err != nil {
		return err
	}
	fn, err := loadCode(code)
	if err != nil {
		return err
	}
	defer fn.free()

	mem, err := allocTape(vm.TapeSize)
	if err != nil {
		return err
	}
	defer mem.free()

	tape := vm.NewSeededTape(j.seeds)
	copy(mem.bytes(), tape.Cells)

	s := &session{in: j.in, out: j.out}
	handle := sessions.open(s)
	result := fn.call(mem.addr(), handle, tape.Pointer)
	sessions.close(handle)

	copy(tape.Cells, mem.bytes())
	j.tape = tape

	tape.Pointer = uint16(result)
	if result&statusAbort != 0 {
		if s.err == nil {
			return errUnknownSession
		}
		return s.err
	}

	if err := j.out.Flush(); err != nil {
		return &vm.RuntimeIOError{Op: "flush", Err: err}
	}
	return nil
}
