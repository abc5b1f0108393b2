// Package server implements a language server for tape-language sources.
//
// It publishes diagnostics for unmatched brackets, folds multi-line loops
// and shows the optimized ops of the loop under the cursor on hover.
package server

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/bfjit/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "bfjit-lsp"

var log = commonlog.GetLogger("bfjit.server")

// LspServer serves editor features for open documents.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:        s.textDocumentHover,
		TextDocumentFoldingRange: s.textDocumentFoldingRange,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("bfjit LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return hover(text, params.Position), nil
}

func (s *LspServer) textDocumentFoldingRange(ctx *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return foldingRanges(text), nil
}

// bracketPair is a matched loop in the source.
type bracketPair struct {
	open, close compiler.Position
}

// scanBrackets matches brackets the way the parser does, but keeps going
// after an error so every stray bracket is found.
func scanBrackets(text string) (pairs []bracketPair, errs []*compiler.ParseError) {
	var open []compiler.Position
	for _, tok := range compiler.Tokenize([]byte(text)) {
		switch tok.Type {
		case compiler.TokenLoopOpen:
			open = append(open, tok.Pos)
		case compiler.TokenLoopClose:
			if len(open) == 0 {
				errs = append(errs, compiler.UnmatchedClose(tok.Pos))
				continue
			}
			pairs = append(pairs, bracketPair{open: open[len(open)-1], close: tok.Pos})
			open = open[:len(open)-1]
		}
	}
	for _, pos := range open {
		errs = append(errs, compiler.UnclosedOpen(pos))
	}
	return pairs, errs
}

// hover lists the optimized ops of the innermost loop containing pos, or
// of the whole document when pos is outside every loop.
func hover(text string, pos protocol.Position) *protocol.Hover {
	offset, ok := byteOffset(text, pos)
	if !ok {
		return nil
	}

	pairs, _ := scanBrackets(text)
	var best *bracketPair
	for i := range pairs {
		p := &pairs[i]
		if p.open.Offset <= offset && offset <= p.close.Offset {
			if best == nil || p.open.Offset > best.open.Offset {
				best = p
			}
		}
	}

	src := text
	title := "program"
	var rng *protocol.Range
	if best != nil {
		src = text[best.open.Offset : best.close.Offset+1]
		title = fmt.Sprintf("loop at %s", best.open)
		r := protocol.Range{
			Start: lspPosition(text, best.open),
			End:   lspPosition(text, best.close),
		}
		r.End.Character++
		rng = &r
	}

	ops, err := compiler.Compile([]byte(src))
	if err != nil {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("```\n")
	sb.WriteString(compiler.DisassembleWithName(ops, title))
	sb.WriteString("```")

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sb.String(),
		},
		Range: rng,
	}
}

// foldingRanges returns one range per loop spanning more than one line.
func foldingRanges(text string) []protocol.FoldingRange {
	pairs, _ := scanBrackets(text)
	var ranges []protocol.FoldingRange
	for _, p := range pairs {
		if p.close.Line == p.open.Line {
			continue
		}
		ranges = append(ranges, protocol.FoldingRange{
			StartLine: protocol.UInteger(p.open.Line - 1),
			EndLine:   protocol.UInteger(p.close.Line - 1),
		})
	}
	return ranges
}

// --- Diagnostics ---

// diagnostics reports every unmatched bracket in text.
func diagnostics(text string) []protocol.Diagnostic {
	_, errs := scanBrackets(text)
	diags := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		start := lspPosition(text, e.Pos)
		end := start
		end.Character++
		diags = append(diags, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Source:   &source,
			Message:  e.Msg,
		})
	}
	return diags
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diags := diagnostics(text)
	log.Debugf("%s: %d diagnostics", uri, len(diags))

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// --- Position conversion ---

// lspPosition converts a source position to a zero-based line and UTF-16
// character offset.
func lspPosition(text string, pos compiler.Position) protocol.Position {
	lineStart := pos.Offset - (pos.Column - 1)
	units := 0
	for _, r := range text[lineStart:pos.Offset] {
		units += utf16.RuneLen(r)
	}
	return protocol.Position{
		Line:      protocol.UInteger(pos.Line - 1),
		Character: protocol.UInteger(units),
	}
}

// byteOffset converts an LSP position to a byte offset in text. A
// character past the end of the line clamps to the line end.
func byteOffset(text string, pos protocol.Position) (int, bool) {
	offset := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return 0, false
		}
		offset += i + 1
	}

	units := protocol.UInteger(0)
	for offset < len(text) && text[offset] != '\n' && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		units += protocol.UInteger(utf16.RuneLen(r))
		offset += size
	}
	return offset, true
}

func boolPtr(b bool) *bool {
	return &b
}
