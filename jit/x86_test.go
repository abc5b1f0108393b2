package jit

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/chazu/bfjit/compiler"
)

func encode(f func(cb *codeBuffer)) []byte {
	cb := newCodeBuffer()
	f(cb)
	return cb.code
}

func TestEncodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(cb *codeBuffer)
		want []byte
	}{
		{"prologue", (*codeBuffer).emitPrologue, []byte{
			0x53, 0x41, 0x54, 0x41, 0x55,
			0x48, 0x89, 0xFB, 0x49, 0x89, 0xF5, 0x41, 0x89, 0xD4,
		}},
		{"epilogue", (*codeBuffer).emitEpilogue, []byte{
			0x44, 0x89, 0xE0, 0x41, 0x5D, 0x41, 0x5C, 0x5B, 0xC3,
		}},
		{"abort", (*codeBuffer).emitAbort, []byte{
			0x44, 0x89, 0xE0, 0x0D, 0x00, 0x00, 0x01, 0x00, 0x41, 0x5D, 0x41, 0x5C, 0x5B, 0xC3,
		}},
		{"move pointer", func(cb *codeBuffer) { cb.emitMovePointer(-1) }, []byte{
			0x41, 0x81, 0xC4, 0xFF, 0xFF, 0xFF, 0xFF, 0x45, 0x0F, 0xB7, 0xE4,
		}},
		{"cell index eax", func(cb *codeBuffer) { cb.emitCellIndex(regAX, 2) }, []byte{
			0x41, 0x8D, 0x84, 0x24, 0x02, 0x00, 0x00, 0x00, 0x0F, 0xB7, 0xC0,
		}},
		{"cell index ecx", func(cb *codeBuffer) { cb.emitCellIndex(regCX, 0) }, []byte{
			0x41, 0x8D, 0x8C, 0x24, 0x00, 0x00, 0x00, 0x00, 0x0F, 0xB7, 0xC9,
		}},
		{"cell index edx", func(cb *codeBuffer) { cb.emitCellIndex(regDX, 1) }, []byte{
			0x41, 0x8D, 0x94, 0x24, 0x01, 0x00, 0x00, 0x00, 0x0F, 0xB7, 0xD2,
		}},
		{"add cell", func(cb *codeBuffer) { cb.emitAddCell(0xFE) }, []byte{0x80, 0x04, 0x03, 0xFE}},
		{"clear eax", func(cb *codeBuffer) { cb.emitClearCell(regAX) }, []byte{0xC6, 0x04, 0x03, 0x00}},
		{"clear ecx", func(cb *codeBuffer) { cb.emitClearCell(regCX) }, []byte{0xC6, 0x04, 0x0B, 0x00}},
		{"load esi", func(cb *codeBuffer) { cb.emitLoadCell(regSI, regAX) }, []byte{0x0F, 0xB6, 0x34, 0x03}},
		{"store al", func(cb *codeBuffer) { cb.emitStoreAL(regCX) }, []byte{0x88, 0x04, 0x0B}},
		{"add al", func(cb *codeBuffer) { cb.emitAddALToCell(regDX) }, []byte{0x00, 0x04, 0x13}},
		{"imul", func(cb *codeBuffer) { cb.emitMulESI(3) }, []byte{0x69, 0xC6, 0x03, 0x00, 0x00, 0x00}},
		{"test cell", (*codeBuffer).emitTestCurrentCell, []byte{0x42, 0x80, 0x3C, 0x23, 0x00}},
		{"test eax", (*codeBuffer).emitTestEAX, []byte{0x85, 0xC0}},
		{"cmp eax", func(cb *codeBuffer) { cb.emitCmpEAX(readEOF) }, []byte{0x3D, 0x00, 0x01, 0x00, 0x00}},
		{"call", func(cb *codeBuffer) { cb.emitCall(0x1122334455667788) }, []byte{
			0x4C, 0x89, 0xEF,
			0x48, 0xB8, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
			0xFF, 0xD0,
		}},
	}
	for _, tt := range tests {
		if got := encode(tt.emit); !bytes.Equal(got, tt.want) {
			t.Errorf("%s: got % X, want % X", tt.name, got, tt.want)
		}
	}
}

func TestPatchRel32(t *testing.T) {
	cb := newCodeBuffer()
	rel := cb.emitJmp()
	cb.emit(0x90, 0x90)
	cb.patchRel32(rel, cb.len())
	if got := int32(binary.LittleEndian.Uint32(cb.code[rel:])); got != 2 {
		t.Errorf("forward rel32 = %d, want 2", got)
	}

	rel = cb.emitJcc(condE)
	cb.patchRel32(rel, 0)
	if got := int32(binary.LittleEndian.Uint32(cb.code[rel:])); got != int32(-(rel + 4)) {
		t.Errorf("backward rel32 = %d, want %d", got, -(rel + 4))
	}
}

func translate(t *testing.T, src string) []byte {
	t.Helper()
	ops, err := compiler.Compile([]byte(src))
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	code, err := NewTranslator(Bridge{Read: 0x1000, Write: 0x2000}).Translate(ops)
	if err != nil {
		t.Fatalf("Translate(%q): %v", src, err)
	}
	return code
}

func TestTranslateEmpty(t *testing.T) {
	want := append(encode((*codeBuffer).emitPrologue), encode((*codeBuffer).emitEpilogue)...)
	want = append(want, encode((*codeBuffer).emitAbort)...)
	if got := translate(t, ""); !bytes.Equal(got, want) {
		t.Errorf("empty program:\n got  % X\n want % X", got, want)
	}
}

func TestTranslateLoopJumps(t *testing.T) {
	code := translate(t, "+[.-]")
	prologue := len(encode((*codeBuffer).emitPrologue))
	add := len(encode(func(cb *codeBuffer) { cb.emitCellIndex(regAX, 0); cb.emitAddCell(1) }))

	head := prologue + add
	test := encode((*codeBuffer).emitTestCurrentCell)
	if !bytes.Equal(code[head:head+len(test)], test) {
		t.Fatalf("loop head at %d is % X, want cell test", head, code[head:head+len(test)])
	}
	jePos := head + len(test)
	if code[jePos] != 0x0F || code[jePos+1] != condE {
		t.Fatalf("no je after loop test: % X", code[jePos:jePos+2])
	}
	exit := jePos + 6 + int(int32(binary.LittleEndian.Uint32(code[jePos+2:])))

	// The exit target directly follows a jmp back to the head.
	jmp := exit - 5
	if code[jmp] != 0xE9 {
		t.Fatalf("byte before loop exit is %#x, want jmp", code[jmp])
	}
	back := exit + int(int32(binary.LittleEndian.Uint32(code[jmp+1:])))
	if back != head {
		t.Errorf("loop jmp lands at %d, want %d", back, head)
	}

	epilogue := encode((*codeBuffer).emitEpilogue)
	if !bytes.Equal(code[exit:exit+len(epilogue)], epilogue) {
		t.Errorf("loop exit does not reach the epilogue")
	}
}

func TestTranslateAbortJumps(t *testing.T) {
	code := translate(t, ",.")
	block := encode((*codeBuffer).emitAbort)
	abort := len(code) - len(block)
	if !bytes.Equal(code[abort:], block) {
		t.Fatalf("abort block missing at %d", abort)
	}

	// Every ja and jne in this program goes to the abort block.
	found := 0
	for i := 0; i+6 <= abort; i++ {
		if code[i] != 0x0F || (code[i+1] != condA && code[i+1] != condNE) {
			continue
		}
		target := i + 6 + int(int32(binary.LittleEndian.Uint32(code[i+2:])))
		if target == abort {
			found++
		}
	}
	if found != 2 {
		t.Errorf("found %d jumps to the abort block, want 2", found)
	}
}

func TestTranslateEmbedsBridge(t *testing.T) {
	code := translate(t, ",.")
	var read, write [8]byte
	binary.LittleEndian.PutUint64(read[:], 0x1000)
	binary.LittleEndian.PutUint64(write[:], 0x2000)
	if !bytes.Contains(code, append([]byte{0x48, 0xB8}, read[:]...)) {
		t.Error("read bridge address not embedded")
	}
	if !bytes.Contains(code, append([]byte{0x48, 0xB8}, write[:]...)) {
		t.Error("write bridge address not embedded")
	}
}

func TestTranslateRejectsInvalidOps(t *testing.T) {
	_, err := NewTranslator(Bridge{}).Translate([]compiler.Op{compiler.LoopEnd(0)})
	if err == nil {
		t.Error("Translate accepted an unmatched LOOP_END")
	}
}

func TestWrap16(t *testing.T) {
	tests := []struct {
		in   int
		want int32
	}{
		{0, 0},
		{1, 1},
		{-1, 0xFFFF},
		{1 << 16, 0},
		{-(1 << 16) - 2, 0xFFFE},
	}
	for _, tt := range tests {
		if got := wrap16(tt.in); got != tt.want {
			t.Errorf("wrap16(%d) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
