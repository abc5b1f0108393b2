package jit

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/chazu/bfjit/vm"
)

// ---------------------------------------------------------------------------
// Host I/O bridge
// ---------------------------------------------------------------------------

// session is the host-side state of one native run. Generated code only
// sees its handle; the bridge functions look the session up to reach the
// byte source and sink.
type session struct {
	in  vm.ByteSource
	out vm.ByteSink
	err error // first I/O failure, reported once the native code returns
}

// sessionTable maps opaque handles to live sessions.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[uintptr]*session
	nextID   atomic.Uintptr
}

var sessions = &sessionTable{sessions: make(map[uintptr]*session)}

// open registers s and returns its handle. Handles are never zero.
func (st *sessionTable) open(s *session) uintptr {
	id := st.nextID.Add(1)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = s
	return id
}

// lookup returns the session for a handle, or nil.
func (st *sessionTable) lookup(id uintptr) *session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// close forgets a handle.
func (st *sessionTable) close(id uintptr) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// len returns the number of open sessions.
func (st *sessionTable) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// bridgeRead is the read entry point called from generated code.
func bridgeRead(handle uintptr) uintptr {
	s := sessions.lookup(handle)
	if s == nil {
		return readFailed
	}
	b, err := s.in.ReadByte()
	if errors.Is(err, io.EOF) {
		return readEOF
	}
	if err != nil {
		s.err = &vm.RuntimeIOError{Op: "read", Err: err}
		return readFailed
	}
	return uintptr(b)
}

// bridgeWrite is the write entry point called from generated code.
func bridgeWrite(handle, b uintptr) uintptr {
	s := sessions.lookup(handle)
	if s == nil {
		return 1
	}
	if err := s.out.WriteByte(byte(b)); err != nil {
		s.err = &vm.RuntimeIOError{Op: "write", Err: err}
		return 1
	}
	return 0
}

var errUnknownSession = errors.New("jit: bridge called with an unknown session")
