package compiler

import "fmt"

// ParseError reports an unmatched bracket. Pos is the offending bracket:
// the stray ']' or the innermost '[' still open at end of input.
type ParseError struct {
	Pos  Position
	Char byte
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// UnmatchedClose reports a ']' with no open loop.
func UnmatchedClose(pos Position) *ParseError {
	return &ParseError{Pos: pos, Char: ']', Msg: "unmatched ']': no corresponding '['"}
}

// UnclosedOpen reports a '[' still open at end of input.
func UnclosedOpen(pos Position) *ParseError {
	return &ParseError{Pos: pos, Char: '[', Msg: "unmatched '[': loop is never closed"}
}
