package compiler

import (
	"strings"
	"testing"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{MovePointer(-3), "MOVE_PTR -3"},
		{AddValue(2, -1), "ADD @+2 -1"},
		{WriteValue(0), "WRITE @+0"},
		{ReadValue(-1), "READ @-1"},
		{LoopBegin(7), "LOOP_BEGIN ->7"},
		{LoopEnd(0), "LOOP_END ->0"},
		{ClearValue(1), "CLEAR @+1"},
		{MoveMultiply(0, 2, 3), "MOVE_MUL @+0 +2*3"},
		{MoveMultiplyMany(1, []Transfer{{1, 1}, {-2, -4}}), "MOVE_MUL_N @+1 +1*1 -2*-4"},
		{SkipToZero(-1), "SKIP_TO_ZERO -1"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestOpKindInfoComplete(t *testing.T) {
	for k := OpMovePointer; k <= OpSkipToZero; k++ {
		if strings.HasPrefix(k.String(), "UNKNOWN") {
			t.Errorf("OpKind %d has no info", k)
		}
	}
	if !strings.HasPrefix(OpKind(200).String(), "UNKNOWN") {
		t.Errorf("OpKind(200).String() = %q, want UNKNOWN prefix", OpKind(200).String())
	}
}

func TestOpEqual(t *testing.T) {
	a := MoveMultiplyMany(0, []Transfer{{1, 2}, {3, 4}})
	b := MoveMultiplyMany(0, []Transfer{{1, 2}, {3, 4}})
	c := MoveMultiplyMany(0, []Transfer{{1, 2}, {3, 5}})
	if !a.Equal(b) {
		t.Error("identical fan-out ops are not Equal")
	}
	if a.Equal(c) {
		t.Error("different fan-out ops are Equal")
	}
	if AddValue(0, 1).Equal(AddValue(1, 1)) {
		t.Error("ops with different offsets are Equal")
	}
	if !AddValue(0, 257).Equal(AddValue(0, 1)) {
		t.Error("AddValue deltas are not normalized mod 256")
	}
}

func TestCompact(t *testing.T) {
	ops := mustCompile(t, "[-]>+.<[>]")
	if got, want := Compact(ops), "c+.s"; got != want {
		t.Errorf("Compact = %q, want %q", got, want)
	}

	literal, err := ParseLiteral([]byte("[-]>+.<[>]"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Compact(literal), "[-]>+.<[>]"; got != want {
		t.Errorf("Compact(literal) = %q, want %q", got, want)
	}
}

func TestDisassembleIndentsLoops(t *testing.T) {
	listing := DisassembleWithName(mustCompile(t, "+[.-]"), "demo")
	want := []string{
		"; === demo ===",
		"; 5 ops",
		"0000  ADD @+0 +1",
		"0001  LOOP_BEGIN ->4",
	}
	lines := strings.Split(listing, "\n")
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	if !strings.Contains(listing, "0002    WRITE @+0") {
		t.Errorf("loop body not indented:\n%s", listing)
	}
}
