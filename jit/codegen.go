package jit

import (
	"fmt"

	"github.com/chazu/bfjit/compiler"
)

// ---------------------------------------------------------------------------
// Translator: ops to x86-64
// ---------------------------------------------------------------------------

// Bridge holds the addresses of the host functions generated code calls
// for I/O. Both take the session handle as their first argument.
//
//	read(handle) -> 0..255 for a byte, readEOF, or readFailed
//	write(handle, b) -> 0 on success, nonzero on failure
type Bridge struct {
	Read  uintptr
	Write uintptr
}

// Results of the read bridge above the byte range.
const (
	readEOF    = 0x100
	readFailed = 0x200
)

// loopLabel records an open loop during translation.
type loopLabel struct {
	head    int // offset of the cell test
	exitRel int // rel32 field of the exit jump
}

// Translator lowers a validated op sequence to one native function with
// the signature
//
//	uint64 fn(uint8_t *tape, uintptr handle, uint32 pointer)
//
// returning the final pointer, with statusAbort set if a bridge call
// failed.
type Translator struct {
	bridge Bridge
	buf    *codeBuffer
	loops  []loopLabel
	aborts []int // rel32 fields that jump to the abort block
}

// NewTranslator creates a translator that calls into bridge for I/O.
func NewTranslator(bridge Bridge) *Translator {
	return &Translator{bridge: bridge}
}

// Translate returns machine code for ops.
func (t *Translator) Translate(ops []compiler.Op) ([]byte, error) {
	if err := compiler.Validate(ops); err != nil {
		return nil, err
	}
	t.buf = newCodeBuffer()
	t.loops = t.loops[:0]
	t.aborts = t.aborts[:0]

	t.buf.emitPrologue()
	for i := range ops {
		if err := t.lower(&ops[i]); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	t.buf.emitEpilogue()

	abort := t.buf.len()
	t.buf.emitAbort()
	for _, rel := range t.aborts {
		t.buf.patchRel32(rel, abort)
	}
	return t.buf.code, nil
}

func (t *Translator) lower(op *compiler.Op) error {
	cb := t.buf
	switch op.Kind {
	case compiler.OpMovePointer:
		cb.emitMovePointer(wrap16(op.Delta))

	case compiler.OpAddValue:
		cb.emitCellIndex(regAX, wrap16(op.Offset))
		cb.emitAddCell(byte(op.Delta))

	case compiler.OpClearValue:
		cb.emitCellIndex(regAX, wrap16(op.Offset))
		cb.emitClearCell(regAX)

	case compiler.OpWriteValue:
		cb.emitCellIndex(regAX, wrap16(op.Offset))
		cb.emitLoadCell(regSI, regAX)
		cb.emitCall(t.bridge.Write)
		cb.emitTestEAX()
		t.aborts = append(t.aborts, cb.emitJcc(condNE))

	case compiler.OpReadValue:
		cb.emitCall(t.bridge.Read)
		cb.emitCmpEAX(readEOF)
		skip := cb.emitJcc(condE)
		t.aborts = append(t.aborts, cb.emitJcc(condA))
		// The call clobbered ecx, so the index is formed afterwards.
		cb.emitCellIndex(regCX, wrap16(op.Offset))
		cb.emitStoreAL(regCX)
		cb.patchRel32(skip, cb.len())

	case compiler.OpLoopBegin:
		head := cb.len()
		cb.emitTestCurrentCell()
		t.loops = append(t.loops, loopLabel{head: head, exitRel: cb.emitJcc(condE)})

	case compiler.OpLoopEnd:
		if len(t.loops) == 0 {
			return fmt.Errorf("unbalanced %s", op.Kind)
		}
		l := t.loops[len(t.loops)-1]
		t.loops = t.loops[:len(t.loops)-1]
		cb.patchRel32(cb.emitJmp(), l.head)
		cb.patchRel32(l.exitRel, cb.len())

	case compiler.OpSkipToZero:
		head := cb.len()
		cb.emitTestCurrentCell()
		exit := cb.emitJcc(condE)
		cb.emitMovePointer(wrap16(op.Delta))
		cb.patchRel32(cb.emitJmp(), head)
		cb.patchRel32(exit, cb.len())

	case compiler.OpMoveMultiply, compiler.OpMoveMultiplyMany:
		cb.emitCellIndex(regCX, wrap16(op.Offset))
		cb.emitLoadCell(regSI, regCX)
		for _, tr := range op.Targets {
			cb.emitMulESI(int32(tr.Multiplier))
			cb.emitCellIndex(regDX, wrap16(op.Offset+tr.Target))
			cb.emitAddALToCell(regDX)
		}
		cb.emitClearCell(regCX)

	default:
		return fmt.Errorf("cannot lower %s", op.Kind)
	}
	return nil
}

// wrap16 reduces a pointer delta or offset modulo the tape size. The result
// is non-negative, so adding it to a 16-bit pointer never overflows 32 bits.
func wrap16(n int) int32 {
	return int32(uint16(n))
}
