package compiler

import (
	"fmt"
	"strings"
)

// OpKind identifies an instruction variant.
type OpKind uint8

const (
	// ========================================================================
	// Literal commands
	// ========================================================================

	OpMovePointer OpKind = iota // Shift the data pointer: Delta
	OpAddValue                  // cell[ptr+Offset] += Delta
	OpWriteValue                // emit cell[ptr+Offset]
	OpReadValue                 // cell[ptr+Offset] = next input byte
	OpLoopBegin                 // if cell[ptr] == 0 goto Jump
	OpLoopEnd                   // goto Jump (the matching OpLoopBegin)

	// ========================================================================
	// Idioms produced by the optimizer
	// ========================================================================

	OpClearValue       // cell[ptr+Offset] = 0
	OpMoveMultiply     // cell[ptr+Offset+t] += cell[ptr+Offset]*m; cell[ptr+Offset] = 0
	OpMoveMultiplyMany // same as OpMoveMultiply, fanned out over Targets
	OpSkipToZero       // while cell[ptr] != 0 { ptr += Delta }
)

// OpKindInfo describes an OpKind for listings and validation.
type OpKindInfo struct {
	Name      string
	Symbol    string // single-character form used by compact listings
	HasOffset bool   // whether Offset is meaningful
}

var opKindInfoTable = map[OpKind]OpKindInfo{
	OpMovePointer:      {"MOVE_PTR", "", false},
	OpAddValue:         {"ADD", "", true},
	OpWriteValue:       {"WRITE", ".", true},
	OpReadValue:        {"READ", ",", true},
	OpLoopBegin:        {"LOOP_BEGIN", "[", false},
	OpLoopEnd:          {"LOOP_END", "]", false},
	OpClearValue:       {"CLEAR", "c", true},
	OpMoveMultiply:     {"MOVE_MUL", "m", true},
	OpMoveMultiplyMany: {"MOVE_MUL_N", "M", true},
	OpSkipToZero:       {"SKIP_TO_ZERO", "s", false},
}

// GetOpKindInfo returns metadata for an op kind.
func GetOpKindInfo(k OpKind) OpKindInfo {
	if info, ok := opKindInfoTable[k]; ok {
		return info
	}
	return OpKindInfo{Name: fmt.Sprintf("UNKNOWN(%d)", byte(k))}
}

// String returns the human-readable name of an op kind.
func (k OpKind) String() string {
	return GetOpKindInfo(k).Name
}

// IsLoop reports whether k is one half of a bracket pair.
func (k OpKind) IsLoop() bool {
	return k == OpLoopBegin || k == OpLoopEnd
}

// Transfer is one destination of a multiply-move: the cell at
// source+Target receives source*Multiplier.
type Transfer struct {
	Target     int
	Multiplier int
}

// Op is a single instruction. Which fields are meaningful depends on Kind;
// unused fields are zero. Ops are values and are never mutated after the
// compiler returns them.
type Op struct {
	Kind    OpKind
	Offset  int        // cell offset relative to the pointer
	Delta   int        // pointer or value delta, or scan stride
	Jump    int        // index of the matching bracket
	Targets []Transfer // multiply-move destinations
}

// wrap8 normalizes a value delta or multiplier to the signed 8-bit range.
// Cell arithmetic is mod 256, so this never changes meaning.
func wrap8(n int) int {
	return int(int8(n))
}

// MovePointer returns an op shifting the pointer by delta cells.
func MovePointer(delta int) Op {
	return Op{Kind: OpMovePointer, Delta: delta}
}

// AddValue returns an op adding delta (mod 256) to the cell at offset.
func AddValue(offset, delta int) Op {
	return Op{Kind: OpAddValue, Offset: offset, Delta: wrap8(delta)}
}

// WriteValue returns an op emitting the cell at offset.
func WriteValue(offset int) Op {
	return Op{Kind: OpWriteValue, Offset: offset}
}

// ReadValue returns an op reading one input byte into the cell at offset.
func ReadValue(offset int) Op {
	return Op{Kind: OpReadValue, Offset: offset}
}

// LoopBegin returns an opening bracket whose match is at end.
func LoopBegin(end int) Op {
	return Op{Kind: OpLoopBegin, Jump: end}
}

// LoopEnd returns a closing bracket whose match is at begin.
func LoopEnd(begin int) Op {
	return Op{Kind: OpLoopEnd, Jump: begin}
}

// ClearValue returns an op zeroing the cell at offset.
func ClearValue(offset int) Op {
	return Op{Kind: OpClearValue, Offset: offset}
}

// MoveMultiply returns an op adding source*mul to source+target and then
// zeroing the source cell at offset.
func MoveMultiply(offset, target, mul int) Op {
	return Op{
		Kind:    OpMoveMultiply,
		Offset:  offset,
		Targets: []Transfer{{Target: target, Multiplier: wrap8(mul)}},
	}
}

// MoveMultiplyMany is MoveMultiply fanned out to several targets. The
// source is read once before any target changes.
func MoveMultiplyMany(offset int, targets []Transfer) Op {
	ts := make([]Transfer, len(targets))
	for i, t := range targets {
		ts[i] = Transfer{Target: t.Target, Multiplier: wrap8(t.Multiplier)}
	}
	return Op{Kind: OpMoveMultiplyMany, Offset: offset, Targets: ts}
}

// SkipToZero returns a scan that moves by stride until the current cell is 0.
func SkipToZero(stride int) Op {
	return Op{Kind: OpSkipToZero, Delta: stride}
}

// withOffset returns op shifted by off cells. Ops without an offset are
// returned unchanged.
func (op Op) withOffset(off int) Op {
	if GetOpKindInfo(op.Kind).HasOffset {
		op.Offset += off
	}
	return op
}

// Equal reports whether two ops are identical.
func (op Op) Equal(other Op) bool {
	if op.Kind != other.Kind || op.Offset != other.Offset ||
		op.Delta != other.Delta || op.Jump != other.Jump ||
		len(op.Targets) != len(other.Targets) {
		return false
	}
	for i := range op.Targets {
		if op.Targets[i] != other.Targets[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two op sequences are identical.
func Equal(a, b []Op) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// String renders one op, e.g. "ADD @+2 -3" or "LOOP_BEGIN ->7".
func (op Op) String() string {
	name := op.Kind.String()
	switch op.Kind {
	case OpMovePointer:
		return fmt.Sprintf("%s %+d", name, op.Delta)
	case OpAddValue:
		return fmt.Sprintf("%s @%+d %+d", name, op.Offset, op.Delta)
	case OpWriteValue, OpReadValue, OpClearValue:
		return fmt.Sprintf("%s @%+d", name, op.Offset)
	case OpLoopBegin, OpLoopEnd:
		return fmt.Sprintf("%s ->%d", name, op.Jump)
	case OpMoveMultiply, OpMoveMultiplyMany:
		parts := make([]string, len(op.Targets))
		for i, t := range op.Targets {
			parts[i] = fmt.Sprintf("%+d*%d", t.Target, t.Multiplier)
		}
		return fmt.Sprintf("%s @%+d %s", name, op.Offset, strings.Join(parts, " "))
	case OpSkipToZero:
		return fmt.Sprintf("%s %+d", name, op.Delta)
	default:
		return name
	}
}

// Symbol renders an op as a single character: the command it came from
// for literal ops, a letter for optimizer idioms.
func (op Op) Symbol() string {
	switch op.Kind {
	case OpMovePointer:
		if op.Delta > 0 {
			return ">"
		}
		return "<"
	case OpAddValue:
		if op.Delta > 0 {
			return "+"
		}
		return "-"
	default:
		return GetOpKindInfo(op.Kind).Symbol
	}
}
