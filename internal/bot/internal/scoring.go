package internal

import (
	"math"

	"game2048/internal/domain"
)

// ScoreDeltaWeight scales the immediate merge score added by one-ply bots.
const ScoreDeltaWeight = 0.5

// ScoredMove holds a candidate direction with its simulated result and score.
type ScoredMove struct {
	Direction domain.Direction
	Result    domain.MoveResult
	Score     float64
}

// MoveScorer rates the result of one move.
type MoveScorer func(res domain.MoveResult) float64

// BuildScoredMoves simulates every valid move of b and scores it.
// The slice follows ValidMoves order.
func BuildScoredMoves(b domain.Board, score MoveScorer) []ScoredMove {
	moves := domain.ValidMoves(b)
	scored := make([]ScoredMove, 0, len(moves))
	for _, d := range moves {
		res := domain.ApplyMove(b, d)
		scored = append(scored, ScoredMove{Direction: d, Result: res, Score: score(res)})
	}
	return scored
}

// PickMax returns the first move with the strictly highest score. Moves scoring
// -Inf or NaN are never picked.
func PickMax(scored []ScoredMove) (ScoredMove, bool) {
	best := math.Inf(-1)
	var pick ScoredMove
	found := false
	for _, m := range scored {
		if m.Score > best {
			best = m.Score
			pick = m
			found = true
		}
	}
	return pick, found
}

// PickMin returns the first move with the strictly lowest score.
func PickMin(scored []ScoredMove) (ScoredMove, bool) {
	best := math.Inf(1)
	var pick ScoredMove
	found := false
	for _, m := range scored {
		if m.Score < best {
			best = m.Score
			pick = m
			found = true
		}
	}
	return pick, found
}

// HeuristicScore is EvaluateBoard of the moved board plus half the merge score.
func HeuristicScore(res domain.MoveResult) float64 {
	return EvaluateBoard(res.Board) + float64(res.ScoreDelta)*ScoreDeltaWeight
}

// GreedyScore is the number of empty cells after the move, before the spawn.
func GreedyScore(res domain.MoveResult) float64 {
	return EvalEmpty(res.Board)
}

// SmallTileScore counts small tiles after the move. Lower is better.
func SmallTileScore(res domain.MoveResult) float64 {
	return float64(CountSmallTiles(res.Board, SmallTileThreshold))
}

// CombinedScore returns a scorer for the user weighted combination.
func CombinedScore(t CombinedTuning) MoveScorer {
	return func(res domain.MoveResult) float64 {
		return t.Score(res.Board) + float64(res.ScoreDelta)*ScoreDeltaWeight
	}
}
