package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the tape language lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Commands
	TokenIncPointer // >
	TokenDecPointer // <
	TokenIncValue   // +
	TokenDecValue   // -
	TokenWrite      // .
	TokenRead       // ,
	TokenLoopOpen   // [
	TokenLoopClose  // ]
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIncPointer: ">",
	TokenDecPointer: "<",
	TokenIncValue:   "+",
	TokenDecValue:   "-",
	TokenWrite:      ".",
	TokenRead:       ",",
	TokenLoopOpen:   "[",
	TokenLoopClose:  "]",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// commandTokens maps each significant source byte to its token type.
// Every other byte is a comment.
var commandTokens = [256]TokenType{
	'>': TokenIncPointer,
	'<': TokenDecPointer,
	'+': TokenIncValue,
	'-': TokenDecValue,
	'.': TokenWrite,
	',': TokenRead,
	'[': TokenLoopOpen,
	']': TokenLoopClose,
}

// IsCommand reports whether b is one of the eight significant bytes.
func IsCommand(b byte) bool {
	return commandTokens[b] != TokenEOF
}

// Position represents a location in source text.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number (bytes)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token.
type Token struct {
	Type TokenType
	Pos  Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%q@%s", t.Type.String(), t.Pos)
}
