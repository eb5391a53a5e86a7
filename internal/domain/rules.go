package domain

// MoveResult is the outcome of sliding a board in one direction, before any
// tile is spawned.
type MoveResult struct {
	Board      Board
	ScoreDelta int
	Moved      bool
}

// ApplyMove slides every line of b toward d. Each line is compressed, merged
// in a single pass and compressed again, so a tile produced by a merge never
// merges a second time in the same move. Out of range directions leave the
// board unchanged.
func ApplyMove(b Board, d Direction) MoveResult {
	res := MoveResult{Board: b}
	if !d.Valid() {
		return res
	}
	for i := 0; i < GridSize; i++ {
		line := readLine(b, d, i)
		out, delta := collapseLine(line)
		if out != line {
			res.Moved = true
		}
		res.ScoreDelta += delta
		writeLine(&res.Board, d, i, out)
	}
	return res
}

// readLine extracts line i oriented so that index 0 is the edge tiles slide toward.
func readLine(b Board, d Direction, i int) [GridSize]int {
	var line [GridSize]int
	for j := 0; j < GridSize; j++ {
		switch d {
		case Left:
			line[j] = b[i][j]
		case Right:
			line[j] = b[i][GridSize-1-j]
		case Up:
			line[j] = b[j][i]
		case Down:
			line[j] = b[GridSize-1-j][i]
		}
	}
	return line
}

func writeLine(b *Board, d Direction, i int, line [GridSize]int) {
	for j := 0; j < GridSize; j++ {
		switch d {
		case Left:
			b[i][j] = line[j]
		case Right:
			b[i][GridSize-1-j] = line[j]
		case Up:
			b[j][i] = line[j]
		case Down:
			b[GridSize-1-j][i] = line[j]
		}
	}
}

// collapseLine applies compress, merge, compress to one line slid toward index 0.
func collapseLine(line [GridSize]int) ([GridSize]int, int) {
	out := compress(line)
	delta := 0
	for i := 0; i < GridSize-1; i++ {
		if out[i] != 0 && out[i] == out[i+1] {
			out[i] *= 2
			delta += out[i]
			out[i+1] = 0
			i++
		}
	}
	return compress(out), delta
}

func compress(line [GridSize]int) [GridSize]int {
	var out [GridSize]int
	n := 0
	for _, v := range line {
		if v != 0 {
			out[n] = v
			n++
		}
	}
	return out
}

// CanMove reports whether b has an empty cell or two equal neighbours.
func CanMove(b Board) bool {
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			v := b[r][c]
			if v == 0 {
				return true
			}
			if c+1 < GridSize && b[r][c+1] == v {
				return true
			}
			if r+1 < GridSize && b[r+1][c] == v {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether no move can change b.
func IsTerminal(b Board) bool {
	return !CanMove(b)
}

// ValidMoves returns the directions that change b, in Up, Down, Left, Right order.
func ValidMoves(b Board) []Direction {
	moves := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		if ApplyMove(b, d).Moved {
			moves = append(moves, d)
		}
	}
	return moves
}
