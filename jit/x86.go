package jit

// ---------------------------------------------------------------------------
// x86-64 encoder
// ---------------------------------------------------------------------------
//
// Generated code keeps three values in callee-saved registers for the whole
// run:
//
//	rbx  tape base address
//	r12  data pointer, always zero-extended from 16 bits
//	r13  bridge session handle
//
// Cell addresses are formed as [rbx + reg] where reg holds a 16-bit index,
// so every access stays inside the 64 KiB tape.

// Register numbers as used in ModRM and SIB fields.
const (
	regAX  = 0
	regCX  = 1
	regDX  = 2
	regBX  = 3
	regSP  = 4
	regSI  = 6
	regDI  = 7
	regR12 = 12
	regR13 = 13
)

// Condition codes for Jcc rel32 (second opcode byte).
const (
	condE  = 0x84
	condNE = 0x85
	condA  = 0x87
)

// statusAbort is set in eax when a bridged I/O call failed. It lies above
// the pointer range, so the low 16 bits still carry the data pointer at
// the point of failure.
const statusAbort = 0x10000

// codeBuffer accumulates machine code.
type codeBuffer struct {
	code []byte
}

func newCodeBuffer() *codeBuffer {
	return &codeBuffer{code: make([]byte, 0, 4096)}
}

func (cb *codeBuffer) emit(bs ...byte) {
	cb.code = append(cb.code, bs...)
}

func (cb *codeBuffer) emitU32(val uint32) {
	cb.emit(byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
}

func (cb *codeBuffer) emitI32(val int32) {
	cb.emitU32(uint32(val))
}

func (cb *codeBuffer) emitU64(val uint64) {
	cb.emitU32(uint32(val))
	cb.emitU32(uint32(val >> 32))
}

func (cb *codeBuffer) len() int {
	return len(cb.code)
}

// patchI32 overwrites the four bytes at pos.
func (cb *codeBuffer) patchI32(pos int, val int32) {
	cb.code[pos] = byte(val)
	cb.code[pos+1] = byte(val >> 8)
	cb.code[pos+2] = byte(val >> 16)
	cb.code[pos+3] = byte(val >> 24)
}

func modRM(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | rm&7
}

func sib(scale, index, base byte) byte {
	return scale<<6 | (index&7)<<3 | base&7
}

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

// emitPrologue saves the callee-saved registers and loads the arguments
// (rdi=tape, rsi=handle, edx=pointer). Three pushes leave rsp 16-byte
// aligned for the bridge calls.
func (cb *codeBuffer) emitPrologue() {
	cb.emit(0x53)             // push rbx
	cb.emit(0x41, 0x54)       // push r12
	cb.emit(0x41, 0x55)       // push r13
	cb.emit(0x48, 0x89, 0xFB) // mov rbx, rdi
	cb.emit(0x49, 0x89, 0xF5) // mov r13, rsi
	cb.emit(0x41, 0x89, 0xD4) // mov r12d, edx
}

// emitReturn restores the saved registers and returns with eax as set.
func (cb *codeBuffer) emitReturn() {
	cb.emit(0x41, 0x5D) // pop r13
	cb.emit(0x41, 0x5C) // pop r12
	cb.emit(0x5B)       // pop rbx
	cb.emit(0xC3)       // ret
}

// emitEpilogue returns the data pointer.
func (cb *codeBuffer) emitEpilogue() {
	cb.emit(0x44, 0x89, 0xE0) // mov eax, r12d
	cb.emitReturn()
}

// emitAbort returns the data pointer with statusAbort set.
func (cb *codeBuffer) emitAbort() {
	cb.emit(0x44, 0x89, 0xE0) // mov eax, r12d
	cb.emit(0x0D)             // or eax, imm32
	cb.emitU32(statusAbort)
	cb.emitReturn()
}

// ---------------------------------------------------------------------------
// Pointer and cell addressing
// ---------------------------------------------------------------------------

// emitMovePointer adds delta to r12 and truncates it to 16 bits.
func (cb *codeBuffer) emitMovePointer(delta int32) {
	cb.emit(0x41, 0x81, modRM(3, 0, regR12)) // add r12d, imm32
	cb.emitI32(delta)
	cb.emit(0x45, 0x0F, 0xB7, modRM(3, regR12, regR12)) // movzx r12d, r12w
}

// emitCellIndex loads the 16-bit index of cell r12+offset into reg, which
// must be one of eax, ecx or edx.
func (cb *codeBuffer) emitCellIndex(reg byte, offset int32) {
	cb.emit(0x41, 0x8D, modRM(2, reg, regSP), sib(0, regSP, regR12)) // lea reg, [r12+disp32]
	cb.emitI32(offset)
	cb.emit(0x0F, 0xB7, modRM(3, reg, reg)) // movzx reg, reg16
}

// emitAddCell adds imm to byte [rbx+rax].
func (cb *codeBuffer) emitAddCell(imm byte) {
	cb.emit(0x80, modRM(0, 0, regSP), sib(0, regAX, regBX), imm)
}

// emitClearCell stores zero to byte [rbx+index].
func (cb *codeBuffer) emitClearCell(index byte) {
	cb.emit(0xC6, modRM(0, 0, regSP), sib(0, index, regBX), 0x00)
}

// emitLoadCell zero-extends byte [rbx+index] into dst.
func (cb *codeBuffer) emitLoadCell(dst, index byte) {
	cb.emit(0x0F, 0xB6, modRM(0, dst, regSP), sib(0, index, regBX))
}

// emitStoreAL stores al to byte [rbx+index].
func (cb *codeBuffer) emitStoreAL(index byte) {
	cb.emit(0x88, modRM(0, regAX, regSP), sib(0, index, regBX))
}

// emitAddALToCell adds al to byte [rbx+index].
func (cb *codeBuffer) emitAddALToCell(index byte) {
	cb.emit(0x00, modRM(0, regAX, regSP), sib(0, index, regBX))
}

// emitMulESI computes eax = esi * imm.
func (cb *codeBuffer) emitMulESI(imm int32) {
	cb.emit(0x69, modRM(3, regAX, regSI))
	cb.emitI32(imm)
}

// emitTestCurrentCell compares byte [rbx+r12] with zero.
func (cb *codeBuffer) emitTestCurrentCell() {
	cb.emit(0x42, 0x80, modRM(0, 7, regSP), sib(0, regR12, regBX), 0x00)
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

// emitJcc emits a conditional near jump and returns the position of its
// rel32 field.
func (cb *codeBuffer) emitJcc(cond byte) int {
	cb.emit(0x0F, cond)
	pos := cb.len()
	cb.emitI32(0)
	return pos
}

// emitJmp emits an unconditional near jump and returns the position of its
// rel32 field.
func (cb *codeBuffer) emitJmp() int {
	cb.emit(0xE9)
	pos := cb.len()
	cb.emitI32(0)
	return pos
}

// patchRel32 points the rel32 field at pos to target.
func (cb *codeBuffer) patchRel32(pos, target int) {
	cb.patchI32(pos, int32(target-(pos+4)))
}

// ---------------------------------------------------------------------------
// Host calls
// ---------------------------------------------------------------------------

// emitCall calls the function at addr with rdi = session handle. esi must
// already hold any second argument.
func (cb *codeBuffer) emitCall(addr uintptr) {
	cb.emit(0x4C, 0x89, modRM(3, regR13&7, regDI)) // mov rdi, r13
	cb.emit(0x48, 0xB8)                            // mov rax, imm64
	cb.emitU64(uint64(addr))
	cb.emit(0xFF, modRM(3, 2, regAX)) // call rax
}

// emitTestEAX sets flags from eax.
func (cb *codeBuffer) emitTestEAX() {
	cb.emit(0x85, modRM(3, regAX, regAX))
}

// emitCmpEAX compares eax with imm.
func (cb *codeBuffer) emitCmpEAX(imm uint32) {
	cb.emit(0x3D)
	cb.emitU32(imm)
}
