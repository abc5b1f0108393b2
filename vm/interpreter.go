package vm

import (
	"errors"
	"io"

	"github.com/chazu/bfjit/compiler"
)

// ---------------------------------------------------------------------------
// Interpreter: op execution engine
// ---------------------------------------------------------------------------

// Interpreter executes compiled ops over a private tape.
type Interpreter struct {
	in  ByteSource
	out ByteSink

	seeds []Seed
	tape  *Tape // tape of the most recent run
}

// NewInterpreter creates an interpreter reading from in and writing to out.
// A nil in behaves as NoInput and a nil out discards output.
func NewInterpreter(in ByteSource, out ByteSink) *Interpreter {
	if in == nil {
		in = NoInput
	}
	if out == nil {
		out = NewSink(io.Discard)
	}
	return &Interpreter{in: in, out: out}
}

// Seed arranges for data to be written at offset from StartPointer on the
// tape of every subsequent run.
func (i *Interpreter) Seed(offset int, data []byte) {
	i.seeds = append(i.seeds, Seed{Offset: offset, Data: append([]byte(nil), data...)})
}

// Tape returns the tape of the most recent run, or nil before the first.
func (i *Interpreter) Tape() *Tape {
	return i.tape
}

// Exec runs ops to completion on a fresh tape and flushes the output once.
// It returns a *RuntimeIOError if the input or output fails; reaching the
// end of input is not an error and leaves the target cell unchanged.
func (i *Interpreter) Exec(ops []compiler.Op) error {
	if err := compiler.Validate(ops); err != nil {
		return err
	}

	tape := NewSeededTape(i.seeds)
	i.tape = tape

	cells := (*[TapeSize]byte)(tape.Cells)
	ptr := tape.Pointer

	for pc := 0; pc < len(ops); pc++ {
		op := &ops[pc]
		switch op.Kind {
		case compiler.OpMovePointer:
			ptr += uint16(op.Delta)

		case compiler.OpAddValue:
			cells[ptr+uint16(op.Offset)] += byte(op.Delta)

		case compiler.OpWriteValue:
			if err := i.out.WriteByte(cells[ptr+uint16(op.Offset)]); err != nil {
				tape.Pointer = ptr
				return &RuntimeIOError{Op: "write", Err: err}
			}

		case compiler.OpReadValue:
			b, err := i.in.ReadByte()
			if errors.Is(err, io.EOF) {
				continue
			}
			if err != nil {
				tape.Pointer = ptr
				return &RuntimeIOError{Op: "read", Err: err}
			}
			cells[ptr+uint16(op.Offset)] = b

		case compiler.OpLoopBegin:
			if cells[ptr] == 0 {
				pc = op.Jump
			}

		case compiler.OpLoopEnd:
			// Land on the matching LoopBegin, which re-tests the cell.
			pc = op.Jump - 1

		case compiler.OpClearValue:
			cells[ptr+uint16(op.Offset)] = 0

		case compiler.OpMoveMultiply, compiler.OpMoveMultiplyMany:
			src := ptr + uint16(op.Offset)
			v := cells[src]
			for _, t := range op.Targets {
				cells[src+uint16(t.Target)] += v * byte(t.Multiplier)
			}
			cells[src] = 0

		case compiler.OpSkipToZero:
			stride := uint16(op.Delta)
			for cells[ptr] != 0 {
				ptr += stride
			}
		}
	}

	tape.Pointer = ptr
	if err := i.out.Flush(); err != nil {
		return &RuntimeIOError{Op: "flush", Err: err}
	}
	return nil
}
