// Package compiler turns tape-language source into a flat op sequence.
//
// Compilation is two passes. The first scans the source once, merging runs
// of '<>' and '+-' and rewriting recognizable loop bodies (clear, scan,
// transfer) into single ops as each ']' closes. The second folds pointer
// moves into per-op offsets so that most instructions address the tape
// relative to an unchanged pointer.
//
// The result is shared by both execution backends (vm and jit).
package compiler

import "fmt"

// Options controls which passes run.
type Options struct {
	// Optimize enables loop idiom rewriting and offset coalescing. With it
	// off, the output is the literal fused command sequence.
	Optimize bool
}

// DefaultOptions returns options with all passes enabled.
func DefaultOptions() Options {
	return Options{Optimize: true}
}

// Compile parses and fully optimizes source.
func Compile(source []byte) ([]Op, error) {
	return CompileWithOptions(source, DefaultOptions())
}

// CompileWithOptions parses source and runs the passes selected by opts.
func CompileWithOptions(source []byte, opts Options) ([]Op, error) {
	if !opts.Optimize {
		return ParseLiteral(source)
	}
	ops, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Coalesce(ops), nil
}

// Parse runs the first pass with idiom rewriting.
func Parse(source []byte) ([]Op, error) {
	return NewParser(source).Parse()
}

// ParseLiteral runs the first pass without idiom rewriting: every loop
// stays a bracket pair and pointer moves stay explicit.
func ParseLiteral(source []byte) ([]Op, error) {
	return NewLiteralParser(source).Parse()
}

// Validate checks that every bracket refers to its partner and that jump
// targets are in range. Backends call it before executing ops that did not
// necessarily come from this package.
func Validate(ops []Op) error {
	var open []int
	for i, op := range ops {
		switch op.Kind {
		case OpLoopBegin:
			open = append(open, i)
			end := op.Jump
			if end <= i || end >= len(ops) || ops[end].Kind != OpLoopEnd || ops[end].Jump != i {
				return fmt.Errorf("op %d: %s does not match a LOOP_END", i, op)
			}
		case OpLoopEnd:
			if len(open) == 0 || open[len(open)-1] != op.Jump {
				return fmt.Errorf("op %d: %s does not close the innermost loop", i, op)
			}
			open = open[:len(open)-1]
		case OpMoveMultiply:
			if len(op.Targets) != 1 {
				return fmt.Errorf("op %d: %s must have exactly one target", i, op)
			}
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("op %d: loop is never closed", open[len(open)-1])
	}
	return nil
}
