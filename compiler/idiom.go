package compiler

// loopIdiom recognizes one loop body shape and returns its replacement.
type loopIdiom struct {
	name  string
	match func(body []Op) ([]Op, bool)
}

// loopIdioms are tried in order against every freshly closed loop body.
// Bodies reaching this point contain only offset-0 ops from the scan.
var loopIdioms = []loopIdiom{
	{"clear", matchClear},
	{"scan", matchScan},
	{"transfer", matchTransfer},
	{"transfer-many", matchTransferMany},
}

// optimizeLoop returns the replacement for a loop body, if any idiom
// applies.
func optimizeLoop(body []Op) ([]Op, bool) {
	if len(body) == 0 {
		return nil, false
	}
	for _, idiom := range loopIdioms {
		if ops, ok := idiom.match(body); ok {
			return ops, true
		}
	}
	return nil, false
}

// isUnitAdd reports whether op adds +1 or -1 to the current cell.
func isUnitAdd(op Op) bool {
	return op.Kind == OpAddValue && (op.Delta == 1 || op.Delta == -1)
}

// matchClear: [-] [+]
func matchClear(body []Op) ([]Op, bool) {
	if len(body) == 1 && isUnitAdd(body[0]) {
		return []Op{ClearValue(0)}, true
	}
	return nil, false
}

// matchScan: [>] [<<]
func matchScan(body []Op) ([]Op, bool) {
	if len(body) == 1 && body[0].Kind == OpMovePointer {
		return []Op{SkipToZero(body[0].Delta)}, true
	}
	return nil, false
}

// matchTransfer: [>>+<<-] [-<<+++>>] and the sign variants.
func matchTransfer(body []Op) ([]Op, bool) {
	if len(body) != 4 {
		return nil, false
	}

	var step Op
	var move []Op
	switch {
	case isUnitAdd(body[3]):
		step, move = body[3], body[:3]
	case isUnitAdd(body[0]):
		step, move = body[0], body[1:]
	default:
		return nil, false
	}

	there, add, back := move[0], move[1], move[2]
	if there.Kind != OpMovePointer || add.Kind != OpAddValue || back.Kind != OpMovePointer {
		return nil, false
	}
	if there.Delta != -back.Delta {
		return nil, false
	}
	return []Op{MoveMultiply(0, there.Delta, -step.Delta*add.Delta)}, true
}

// matchTransferMany: [->+++>+++++++<<] and friends. The body is a unit step
// on the source cell, then (move, add) pairs, then one move back to the
// source. A pair that lands on the source cell itself disqualifies the
// loop, since the step count would no longer equal the source value.
func matchTransferMany(body []Op) ([]Op, bool) {
	var step Op
	var rest []Op
	if body[0].Kind == OpAddValue {
		step, rest = body[0], body[1:]
	} else if last := body[len(body)-1]; last.Kind == OpAddValue {
		step, rest = last, body[:len(body)-1]
	} else {
		return nil, false
	}
	if !isUnitAdd(step) {
		return nil, false
	}

	if len(rest) < 3 || len(rest)%2 != 1 {
		return nil, false
	}
	back := rest[len(rest)-1]
	if back.Kind != OpMovePointer {
		return nil, false
	}
	pairs := rest[:len(rest)-1]

	targets := make([]Transfer, 0, len(pairs)/2)
	pos := 0
	for i := 0; i < len(pairs); i += 2 {
		move, add := pairs[i], pairs[i+1]
		if move.Kind != OpMovePointer || add.Kind != OpAddValue {
			return nil, false
		}
		pos += move.Delta
		if pos == 0 {
			return nil, false
		}
		targets = append(targets, Transfer{Target: pos, Multiplier: -step.Delta * add.Delta})
	}

	if pos+back.Delta != 0 {
		return nil, false
	}
	return []Op{MoveMultiplyMany(0, targets)}, true
}
