package compiler

// Coalesce folds pointer moves into the offsets of the ops that follow
// them. The running offset is written out as an explicit MovePointer only
// where the real pointer must be exact: before each bracket, before a scan,
// and at the end of the program. Loop indices are recomputed against the
// shorter output.
//
// ops must be well nested. Offsets already present are added to, so running
// Coalesce on its own output returns an identical sequence.
func Coalesce(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	var loops []int
	offset := 0

	flush := func() {
		if offset != 0 {
			out = append(out, MovePointer(offset))
			offset = 0
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case OpMovePointer:
			offset += op.Delta
		case OpLoopBegin:
			flush()
			loops = append(loops, len(out))
			out = append(out, LoopBegin(-1))
		case OpLoopEnd:
			flush()
			if len(loops) == 0 {
				panic("compiler: Coalesce given unbalanced loops")
			}
			begin := loops[len(loops)-1]
			loops = loops[:len(loops)-1]
			out[begin] = LoopBegin(len(out))
			out = append(out, LoopEnd(begin))
		case OpSkipToZero:
			flush()
			out = append(out, op)
		default:
			out = append(out, op.withOffset(offset))
		}
	}
	flush()

	return out
}
