package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestDiagnostics_Clean(t *testing.T) {
	if diags := diagnostics("+[->+<]\n.comment"); len(diags) != 0 {
		t.Errorf("got %d diagnostics for a valid program: %v", len(diags), diags)
	}
}

func TestDiagnostics_UnmatchedClose(t *testing.T) {
	diags := diagnostics("+\n  -]")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	d := diags[0]
	want := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 3},
		End:   protocol.Position{Line: 1, Character: 4},
	}
	if d.Range != want {
		t.Errorf("range = %+v, want %+v", d.Range, want)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
		t.Error("severity is not Error")
	}
	if !strings.Contains(d.Message, "']'") {
		t.Errorf("message = %q, want mention of ']'", d.Message)
	}
}

func TestDiagnostics_ReportsEveryBracket(t *testing.T) {
	diags := diagnostics("][[]\n[")
	if len(diags) != 3 {
		t.Fatalf("got %d diagnostics, want 3: %v", len(diags), diags)
	}
	want := []protocol.Position{
		{Line: 0, Character: 0},
		{Line: 0, Character: 1},
		{Line: 1, Character: 0},
	}
	for i, d := range diags {
		if d.Range.Start != want[i] {
			t.Errorf("diagnostic %d at %+v, want %+v", i, d.Range.Start, want[i])
		}
	}
}

func TestDiagnostics_UTF16Columns(t *testing.T) {
	// "é" is two bytes but one UTF-16 unit; "😀" is four bytes, two units.
	diags := diagnostics("é😀]")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if got := diags[0].Range.Start.Character; got != 3 {
		t.Errorf("character = %d, want 3", got)
	}
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func hoverText(t *testing.T, h *protocol.Hover) string {
	t.Helper()
	if h == nil {
		t.Fatal("hover is nil")
	}
	mc, ok := h.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatalf("contents = %T, want MarkupContent", h.Contents)
	}
	return mc.Value
}

func TestHover_InnermostLoop(t *testing.T) {
	text := "++[>[-]<-]"
	h := hover(text, protocol.Position{Line: 0, Character: 5})
	value := hoverText(t, h)
	if !strings.Contains(value, "CLEAR @+0") {
		t.Errorf("hover = %q, want the cleared inner loop", value)
	}
	if strings.Contains(value, "LOOP_BEGIN") {
		t.Errorf("hover = %q, shows the outer loop", value)
	}
	if h.Range == nil || h.Range.Start.Character != 4 || h.Range.End.Character != 7 {
		t.Errorf("range = %+v, want characters 4..7", h.Range)
	}
}

func TestHover_OuterLoop(t *testing.T) {
	value := hoverText(t, hover("++[>[-]<-]", protocol.Position{Line: 0, Character: 3}))
	if !strings.Contains(value, "LOOP_BEGIN") || !strings.Contains(value, "CLEAR @+1") {
		t.Errorf("hover = %q, want the coalesced outer loop", value)
	}
}

func TestHover_WholeProgram(t *testing.T) {
	value := hoverText(t, hover("+++.", protocol.Position{Line: 0, Character: 1}))
	if !strings.Contains(value, "; === program ===") || !strings.Contains(value, "ADD @+0 +3") {
		t.Errorf("hover = %q", value)
	}
}

func TestHover_BrokenProgram(t *testing.T) {
	if h := hover("+]", protocol.Position{Line: 0, Character: 0}); h != nil {
		t.Errorf("hover on a malformed program = %+v, want nil", h)
	}
}

func TestHover_LineBeyondDocument(t *testing.T) {
	if h := hover("+", protocol.Position{Line: 5, Character: 0}); h != nil {
		t.Errorf("hover past the end = %+v, want nil", h)
	}
}

// ---------------------------------------------------------------------------
// Folding
// ---------------------------------------------------------------------------

func TestFoldingRanges(t *testing.T) {
	text := "+[\n  >[-]\n  <-\n]\n[.]"
	ranges := foldingRanges(text)
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1: %v", len(ranges), ranges)
	}
	if ranges[0].StartLine != 0 || ranges[0].EndLine != 3 {
		t.Errorf("range = %d..%d, want 0..3", ranges[0].StartLine, ranges[0].EndLine)
	}
}

// ---------------------------------------------------------------------------
// Position conversion
// ---------------------------------------------------------------------------

func TestByteOffset(t *testing.T) {
	text := "ab\né+\n"
	tests := []struct {
		pos  protocol.Position
		want int
	}{
		{protocol.Position{Line: 0, Character: 0}, 0},
		{protocol.Position{Line: 0, Character: 9}, 2},
		{protocol.Position{Line: 1, Character: 1}, 5},
		{protocol.Position{Line: 2, Character: 0}, 7},
	}
	for _, tt := range tests {
		got, ok := byteOffset(text, tt.pos)
		if !ok || got != tt.want {
			t.Errorf("byteOffset(%+v) = %d, %v; want %d", tt.pos, got, ok, tt.want)
		}
	}
	if _, ok := byteOffset(text, protocol.Position{Line: 3}); ok {
		t.Error("byteOffset accepted a line past the end")
	}
}

// ---------------------------------------------------------------------------
// Document store
// ---------------------------------------------------------------------------

func TestDocumentStore(t *testing.T) {
	s := NewLSP()
	s.docs["file:///a.b"] = "+"
	if text, ok := s.document("file:///a.b"); !ok || text != "+" {
		t.Errorf("document = %q, %v", text, ok)
	}
	if _, ok := s.document("file:///missing.b"); ok {
		t.Error("document found for an unknown URI")
	}
}
