package domain

import (
	"math/rand"
	"testing"
)

func lineBoard(line [GridSize]int) Board {
	var b Board
	b[0] = line
	return b
}

func TestApplyMoveLeftLines(t *testing.T) {
	tests := []struct {
		name      string
		line      [GridSize]int
		want      [GridSize]int
		wantDelta int
		wantMoved bool
	}{
		{name: "no chain merge", line: [GridSize]int{2, 2, 4, 0}, want: [GridSize]int{4, 4, 0, 0}, wantDelta: 4, wantMoved: true},
		{name: "two pairs", line: [GridSize]int{2, 2, 2, 2}, want: [GridSize]int{4, 4, 0, 0}, wantDelta: 8, wantMoved: true},
		{name: "gap merge", line: [GridSize]int{2, 0, 2, 0}, want: [GridSize]int{4, 0, 0, 0}, wantDelta: 4, wantMoved: true},
		{name: "slide only", line: [GridSize]int{0, 0, 0, 2}, want: [GridSize]int{2, 0, 0, 0}, wantMoved: true},
		{name: "leftmost pair first", line: [GridSize]int{4, 4, 4, 0}, want: [GridSize]int{8, 4, 0, 0}, wantDelta: 8, wantMoved: true},
		{name: "blocked", line: [GridSize]int{2, 4, 8, 16}, want: [GridSize]int{2, 4, 8, 16}},
		{name: "empty", line: [GridSize]int{}, want: [GridSize]int{}},
		{name: "large tiles", line: [GridSize]int{1 << 20, 1 << 20, 0, 0}, want: [GridSize]int{1 << 21, 0, 0, 0}, wantDelta: 1 << 21, wantMoved: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ApplyMove(lineBoard(tt.line), Left)
			if res.Board[0] != tt.want {
				t.Fatalf("row = %v, want %v", res.Board[0], tt.want)
			}
			if res.ScoreDelta != tt.wantDelta {
				t.Errorf("ScoreDelta = %d, want %d", res.ScoreDelta, tt.wantDelta)
			}
			if res.Moved != tt.wantMoved {
				t.Errorf("Moved = %v, want %v", res.Moved, tt.wantMoved)
			}
		})
	}
}

func TestApplyMoveScenario(t *testing.T) {
	b := Board{{2, 2, 0, 0}}
	res := ApplyMove(b, Left)
	want := Board{{4, 0, 0, 0}}
	if res.Board != want {
		t.Fatalf("board = %v, want %v", res.Board, want)
	}
	if res.ScoreDelta != 4 || !res.Moved {
		t.Fatalf("delta=%d moved=%v, want 4 true", res.ScoreDelta, res.Moved)
	}
	if b != (Board{{2, 2, 0, 0}}) {
		t.Fatalf("input board was modified: %v", b)
	}
}

func TestApplyMoveDirections(t *testing.T) {
	b := Board{
		{2, 0, 0, 2},
		{0, 4, 0, 0},
		{0, 4, 0, 0},
		{8, 0, 0, 8},
	}
	tests := []struct {
		dir  Direction
		want Board
	}{
		{Left, Board{{4, 0, 0, 0}, {4, 0, 0, 0}, {4, 0, 0, 0}, {16, 0, 0, 0}}},
		{Right, Board{{0, 0, 0, 4}, {0, 0, 0, 4}, {0, 0, 0, 4}, {0, 0, 0, 16}}},
		{Up, Board{{2, 8, 0, 2}, {8, 0, 0, 8}, {0, 0, 0, 0}, {0, 0, 0, 0}}},
		{Down, Board{{0, 0, 0, 0}, {0, 0, 0, 0}, {2, 0, 0, 2}, {8, 8, 0, 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			if got := ApplyMove(b, tt.dir).Board; got != tt.want {
				t.Fatalf("ApplyMove(%s) =\n%v\nwant\n%v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestApplyMoveInvalidDirection(t *testing.T) {
	b := Board{{2, 2, 0, 0}}
	res := ApplyMove(b, Direction(9))
	if res.Moved || res.Board != b || res.ScoreDelta != 0 {
		t.Fatalf("invalid direction changed the board: %+v", res)
	}
}

// randomBoard fills each cell with probability fill using small powers of two.
func randomBoard(rng *rand.Rand, fill float64) Board {
	var b Board
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if rng.Float64() < fill {
				b[r][c] = 1 << (1 + rng.Intn(5))
			}
		}
	}
	return b
}

func reverseRows(b Board) Board {
	var out Board
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			out[r][c] = b[r][GridSize-1-c]
		}
	}
	return out
}

func transpose(b Board) Board {
	var out Board
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			out[r][c] = b[c][r]
		}
	}
	return out
}

func TestApplyMoveSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		b := randomBoard(rng, 0.7)

		right := ApplyMove(b, Right)
		mirrored := ApplyMove(reverseRows(b), Left)
		if right.Board != reverseRows(mirrored.Board) || right.ScoreDelta != mirrored.ScoreDelta || right.Moved != mirrored.Moved {
			t.Fatalf("Right is not reverse-Left-reverse for\n%v", b)
		}

		up := ApplyMove(b, Up)
		transposed := ApplyMove(transpose(b), Left)
		if up.Board != transpose(transposed.Board) || up.ScoreDelta != transposed.ScoreDelta {
			t.Fatalf("Up is not transpose-Left-transpose for\n%v", b)
		}
	}
}

func TestTerminalConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		fill := 0.8
		if i%2 == 0 {
			fill = 1.0
		}
		b := randomBoard(rng, fill)
		terminal := IsTerminal(b)
		if terminal != (len(ValidMoves(b)) == 0) {
			t.Fatalf("IsTerminal=%v but ValidMoves=%v for\n%v", terminal, ValidMoves(b), b)
		}
	}
}

func TestTerminalBoard(t *testing.T) {
	b := Board{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	if !IsTerminal(b) {
		t.Fatalf("checkerboard should be terminal")
	}
	b[3][3] = 4
	if IsTerminal(b) {
		t.Fatalf("board with an adjacent pair should not be terminal")
	}
	if moves := ValidMoves(b); len(moves) != 4 {
		t.Fatalf("ValidMoves = %v, want all four", moves)
	}
}

func TestNoOpIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		b := randomBoard(rng, 0.6)
		for _, d := range Directions {
			first := ApplyMove(b, d)
			if first.Moved {
				continue
			}
			if second := ApplyMove(first.Board, d); second.Moved {
				t.Fatalf("re-applying blocked %s moved the board\n%v", d, b)
			}
		}
	}
}

func TestConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 500; i++ {
		b := randomBoard(rng, 0.75)
		for _, d := range Directions {
			res := ApplyMove(b, d)
			if res.ScoreDelta < 0 {
				t.Fatalf("negative delta %d", res.ScoreDelta)
			}
			if res.Board.TileSum() != b.TileSum() {
				t.Fatalf("tile sum changed from %d to %d moving %s", b.TileSum(), res.Board.TileSum(), d)
			}
			merges := countTiles(b) - countTiles(res.Board)
			if res.ScoreDelta == 0 && merges != 0 {
				t.Fatalf("%d merges but zero delta", merges)
			}
			if res.ScoreDelta > 0 && merges == 0 {
				t.Fatalf("delta %d without merges", res.ScoreDelta)
			}
		}
	}
}

func countTiles(b Board) int {
	return GridSize*GridSize - b.CountEmpty()
}

func TestScoreNeverDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	state := NewGame(rng)
	for step := 0; step < 300 && !state.Terminal; step++ {
		moves := ValidMoves(state.Board)
		next, res := state.Step(moves[rng.Intn(len(moves))], rng)
		if !res.Moved {
			t.Fatalf("valid move did not move")
		}
		if next.Score < state.Score {
			t.Fatalf("score dropped from %d to %d", state.Score, next.Score)
		}
		if next.Score-state.Score != res.ScoreDelta {
			t.Fatalf("score advanced by %d, delta was %d", next.Score-state.Score, res.ScoreDelta)
		}
		state = next
	}
}
