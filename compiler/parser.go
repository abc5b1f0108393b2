package compiler

// ---------------------------------------------------------------------------
// Parser: single scan with run-length fusion and loop idiom rewriting
// ---------------------------------------------------------------------------

// pendingLoop is an open bracket waiting for its match.
type pendingLoop struct {
	index int      // index of the placeholder LoopBegin in ops
	pos   Position // source position of the '['
}

// Parser turns command tokens into ops. Consecutive pointer moves and
// consecutive value changes are merged, and each loop body is matched
// against the known idioms as soon as its ']' is seen.
type Parser struct {
	lexer  *Lexer
	cur    Token
	ops    []Op
	loops  []pendingLoop
	idioms bool
}

// NewParser creates a parser that rewrites loop idioms.
func NewParser(input []byte) *Parser {
	p := &Parser{
		lexer:  NewLexer(input),
		ops:    make([]Op, 0, len(input)/2),
		idioms: true,
	}
	p.nextToken()
	return p
}

// NewLiteralParser creates a parser that emits plain bracket pairs for
// every loop.
func NewLiteralParser(input []byte) *Parser {
	p := NewParser(input)
	p.idioms = false
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.cur = p.lexer.NextToken()
}

// curTokenIs checks if the current token is one of the given types.
func (p *Parser) curTokenIs(types ...TokenType) bool {
	for _, t := range types {
		if p.cur.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) emit(op Op) {
	p.ops = append(p.ops, op)
}

// Parse runs the scan to completion. On success the returned ops still
// contain MovePointer; use Coalesce to fold those into offsets.
func (p *Parser) Parse() ([]Op, error) {
	for !p.curTokenIs(TokenEOF) {
		switch p.cur.Type {
		case TokenIncPointer, TokenDecPointer:
			p.parsePointerRun()
			continue
		case TokenIncValue, TokenDecValue:
			p.parseValueRun()
			continue
		case TokenWrite:
			p.emit(WriteValue(0))
		case TokenRead:
			p.emit(ReadValue(0))
		case TokenLoopOpen:
			p.loops = append(p.loops, pendingLoop{index: len(p.ops), pos: p.cur.Pos})
			p.emit(LoopBegin(-1))
		case TokenLoopClose:
			if err := p.closeLoop(); err != nil {
				return nil, err
			}
		}
		p.nextToken()
	}

	if n := len(p.loops); n > 0 {
		return nil, UnclosedOpen(p.loops[n-1].pos)
	}
	return p.ops, nil
}

// parsePointerRun merges a run of '>' and '<' into one MovePointer.
func (p *Parser) parsePointerRun() {
	delta := 0
	for p.curTokenIs(TokenIncPointer, TokenDecPointer) {
		if p.cur.Type == TokenIncPointer {
			delta++
		} else {
			delta--
		}
		p.nextToken()
	}
	if delta != 0 {
		p.emit(MovePointer(delta))
	}
}

// parseValueRun merges a run of '+' and '-' into one AddValue. Runs that
// cancel out mod 256 emit nothing.
func (p *Parser) parseValueRun() {
	delta := 0
	for p.curTokenIs(TokenIncValue, TokenDecValue) {
		if p.cur.Type == TokenIncValue {
			delta++
		} else {
			delta--
		}
		p.nextToken()
	}
	if wrap8(delta) != 0 {
		p.emit(AddValue(0, delta))
	}
}

// closeLoop matches the current ']' with the innermost open '['. The body
// is replaced by an idiom when one applies; otherwise the placeholder is
// backpatched into a literal bracket pair.
func (p *Parser) closeLoop() error {
	n := len(p.loops)
	if n == 0 {
		return UnmatchedClose(p.cur.Pos)
	}
	begin := p.loops[n-1].index
	p.loops = p.loops[:n-1]

	if p.idioms {
		if rewritten, ok := optimizeLoop(p.ops[begin+1:]); ok {
			p.ops = append(p.ops[:begin], rewritten...)
			return nil
		}
	}

	p.ops[begin] = LoopBegin(len(p.ops))
	p.emit(LoopEnd(begin))
	return nil
}
