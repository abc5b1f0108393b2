package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a compact record of a tape: the pointer and the smallest
// window of cells that covers every nonzero cell and the pointer.
type Snapshot struct {
	Pointer uint16 `cbor:"1,keyasint"`
	Base    uint16 `cbor:"2,keyasint"` // absolute index of Cells[0]
	Cells   []byte `cbor:"3,keyasint"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures t. The window does not wrap; a tape with nonzero cells
// at both ends yields a wide window.
func (t *Tape) Snapshot() *Snapshot {
	lo, hi := int(t.Pointer), int(t.Pointer)
	for i, c := range t.Cells {
		if c == 0 {
			continue
		}
		if i < lo {
			lo = i
		}
		if i > hi {
			hi = i
		}
	}
	cells := make([]byte, hi-lo+1)
	copy(cells, t.Cells[lo:hi+1])
	return &Snapshot{Pointer: t.Pointer, Base: uint16(lo), Cells: cells}
}

// Restore rebuilds the full tape described by s.
func (s *Snapshot) Restore() *Tape {
	t := NewTape()
	t.Pointer = s.Pointer
	copy(t.Cells[s.Base:], s.Cells)
	return t
}

// MarshalSnapshot serializes s to canonical CBOR.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	if int(s.Base)+len(s.Cells) > TapeSize {
		return nil, fmt.Errorf("vm: snapshot window %d+%d exceeds tape", s.Base, len(s.Cells))
	}
	return &s, nil
}
