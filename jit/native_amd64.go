//go:build amd64 && (linux || darwin)

package jit

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

const supported = true

var (
	bridgeOnce sync.Once
	hostBridge Bridge
)

// nativeBridge returns the C-callable addresses of bridgeRead and
// bridgeWrite. Callbacks are a process-wide resource, so they are created
// once and shared by every JIT.
func nativeBridge() (Bridge, error) {
	bridgeOnce.Do(func() {
		hostBridge = Bridge{
			Read:  purego.NewCallback(bridgeRead),
			Write: purego.NewCallback(bridgeWrite),
		}
	})
	return hostBridge, nil
}

// execMemory is a mapping holding generated code or the tape.
type execMemory struct {
	mem []byte
}

func mapAnon(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// loadCode copies code into a fresh mapping and makes it executable. The
// mapping is never writable and executable at the same time.
func loadCode(code []byte) (*execMemory, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jit: empty code")
	}
	mem, err := mapAnon(len(code))
	if err != nil {
		return nil, fmt.Errorf("jit: mmap code: %w", err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("jit: mprotect: %w", err)
	}
	return &execMemory{mem: mem}, nil
}

// allocTape maps size bytes of zeroed read-write memory.
func allocTape(size int) (*execMemory, error) {
	mem, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap tape: %w", err)
	}
	return &execMemory{mem: mem}, nil
}

func (m *execMemory) bytes() []byte {
	return m.mem
}

func (m *execMemory) addr() uintptr {
	return uintptr(unsafe.Pointer(&m.mem[0]))
}

func (m *execMemory) free() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	return err
}

// call runs the code in m as fn(tape, handle, pointer).
func (m *execMemory) call(tape, handle uintptr, pointer uint16) uintptr {
	r1, _, _ := purego.SyscallN(m.addr(), tape, handle, uintptr(pointer))
	return r1
}
