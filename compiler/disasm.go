package compiler

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of ops, one per line,
// indented by loop depth.
func Disassemble(ops []Op) string {
	return DisassembleWithName(ops, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(ops []Op, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; %d ops\n", len(ops)))

	depth := 0
	for i, op := range ops {
		if op.Kind == OpLoopEnd && depth > 0 {
			depth--
		}
		sb.WriteString(fmt.Sprintf("%04d  %s%s\n", i, strings.Repeat("  ", depth), op))
		if op.Kind == OpLoopBegin {
			depth++
		}
	}

	return sb.String()
}

// Compact renders ops as one character each; see Op.Symbol.
func Compact(ops []Op) string {
	var sb strings.Builder
	for _, op := range ops {
		sb.WriteString(op.Symbol())
	}
	return sb.String()
}
