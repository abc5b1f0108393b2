package vm

// Tape geometry. The pointer is a 16-bit index, so every pointer move and
// every offset wraps modulo TapeSize; there is no out-of-bounds state.
const (
	TapeSize     = 1 << 16
	CellSize     = 1
	StartPointer = TapeSize / 2
)

// Tape is the data memory of one run: the cells and the final pointer.
type Tape struct {
	Cells   []byte // always TapeSize long
	Pointer uint16
}

// NewTape returns a zeroed tape with the pointer at StartPointer.
func NewTape() *Tape {
	return &Tape{
		Cells:   make([]byte, TapeSize),
		Pointer: StartPointer,
	}
}

// Index returns the absolute cell index at offset from the pointer.
func (t *Tape) Index(offset int) uint16 {
	return t.Pointer + uint16(offset)
}

// Cell returns the cell at offset from the pointer.
func (t *Tape) Cell(offset int) byte {
	return t.Cells[t.Index(offset)]
}

// Seed is a block of cell values written before a run starts, placed at
// Offset cells from StartPointer.
type Seed struct {
	Offset int
	Data   []byte
}

// apply writes the seed onto t, wrapping at the tape ends.
func (s Seed) apply(t *Tape) {
	base := uint16(StartPointer) + uint16(s.Offset)
	for i, b := range s.Data {
		t.Cells[base+uint16(i)] = b
	}
}

// NewSeededTape returns a fresh tape with seeds applied in order.
func NewSeededTape(seeds []Seed) *Tape {
	t := NewTape()
	for _, s := range seeds {
		s.apply(t)
	}
	return t
}
