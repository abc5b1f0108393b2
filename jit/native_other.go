//go:build !(amd64 && (linux || darwin))

package jit

import "errors"

const supported = false

var errNoNative = errors.New("jit: native execution is not available on this target")

func nativeBridge() (Bridge, error) {
	return Bridge{}, errNoNative
}

type execMemory struct{}

func loadCode([]byte) (*execMemory, error) { return nil, errNoNative }

func allocTape(int) (*execMemory, error) { return nil, errNoNative }

func (*execMemory) bytes() []byte { return nil }

func (*execMemory) addr() uintptr { return 0 }

func (*execMemory) free() error { return nil }

func (*execMemory) call(uintptr, uintptr, uint16) uintptr { return statusAbort }
