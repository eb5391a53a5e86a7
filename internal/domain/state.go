package domain

// GameState is a snapshot of one game. Terminal holds iff no move can change Board.
type GameState struct {
	Board    Board
	Score    int
	Terminal bool
}

// NewGameState wraps a board with a score and derives Terminal.
func NewGameState(b Board, score int) GameState {
	return GameState{Board: b, Score: score, Terminal: IsTerminal(b)}
}

// NewGame returns a fresh game with StartingTiles tiles spawned.
func NewGame(rng Rand) GameState {
	var b Board
	for i := 0; i < StartingTiles; i++ {
		b = SpawnRandomTile(b, rng)
	}
	return NewGameState(b, 0)
}

// Step plays d on s: slide, and when the board changed add the score delta and
// spawn one tile. The receiver is not modified.
func (s GameState) Step(d Direction, rng Rand) (GameState, MoveResult) {
	res := ApplyMove(s.Board, d)
	if !res.Moved {
		return s, res
	}
	b := SpawnRandomTile(res.Board, rng)
	return NewGameState(b, s.Score+res.ScoreDelta), res
}

// MaxTile is the largest tile on the board.
func (s GameState) MaxTile() int {
	return s.Board.MaxTile()
}

// Won reports whether the WinningTile has been reached.
func (s GameState) Won() bool {
	return s.Board.MaxTile() >= WinningTile
}
