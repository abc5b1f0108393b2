package compiler

// ---------------------------------------------------------------------------
// Lexer: command scanner that skips comment bytes
// ---------------------------------------------------------------------------

// Lexer tokenizes source bytes. Only the eight command bytes produce tokens;
// everything else is skipped while still advancing line/column tracking.
type Lexer struct {
	input []byte
	pos   int // offset of the next unread byte
	line  int // current line (1-based)
	col   int // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input []byte) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// advance consumes one byte and updates line/column.
func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// position returns the position of the next unread byte.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// skipComments advances past any run of non-command bytes.
func (l *Lexer) skipComments() {
	for l.pos < len(l.input) && !IsCommand(l.input[l.pos]) {
		l.advance()
	}
}

// NextToken returns the next command token, or TokenEOF at end of input.
func (l *Lexer) NextToken() Token {
	l.skipComments()

	pos := l.position()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	tok := Token{Type: commandTokens[l.input[l.pos]], Pos: pos}
	l.advance()
	return tok
}

// Tokenize returns all command tokens in input, without the trailing EOF.
func Tokenize(input []byte) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
