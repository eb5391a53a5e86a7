package bot

import (
	"context"

	botinternal "game2048/internal/bot/internal"
	"game2048/internal/domain"
)

// RandomBot picks a uniformly random valid move.
type RandomBot struct {
	Rng domain.Rand
}

func (b *RandomBot) ChooseMove(_ context.Context, board domain.Board) (Move, error) {
	return randomMove(board, b.Rng), nil
}

func randomMove(board domain.Board, rng domain.Rand) Move {
	moves := domain.ValidMoves(board)
	if len(moves) == 0 {
		return NoMove
	}
	return MoveTo(moves[rng.Intn(len(moves))])
}

// onePly scores every valid move once and keeps the best. When nothing can be
// picked it falls back to a random valid move.
func onePly(board domain.Board, rng domain.Rand, score botinternal.MoveScorer, minimize bool) Move {
	scored := botinternal.BuildScoredMoves(board, score)
	pick := botinternal.PickMax
	if minimize {
		pick = botinternal.PickMin
	}
	if best, ok := pick(scored); ok {
		return MoveTo(best.Direction)
	}
	return randomMove(board, rng)
}

// GreedyBot maximises the number of empty cells right after the move.
type GreedyBot struct {
	Rng domain.Rand
}

func (b *GreedyBot) ChooseMove(_ context.Context, board domain.Board) (Move, error) {
	return onePly(board, b.Rng, botinternal.GreedyScore, false), nil
}

// HeuristicBot maximises the board evaluation plus half the merge score.
type HeuristicBot struct {
	Rng domain.Rand
}

func (b *HeuristicBot) ChooseMove(_ context.Context, board domain.Board) (Move, error) {
	return onePly(board, b.Rng, botinternal.HeuristicScore, false), nil
}

// RemoveSmallBot minimises the number of tiles below 8. The first move
// reaching the minimum wins.
type RemoveSmallBot struct {
	Rng domain.Rand
}

func (b *RemoveSmallBot) ChooseMove(_ context.Context, board domain.Board) (Move, error) {
	return onePly(board, b.Rng, botinternal.SmallTileScore, true), nil
}

// CombinedBot maximises the user weighted heuristic sum plus half the merge score.
type CombinedBot struct {
	Rng    domain.Rand
	Tuning botinternal.CombinedTuning
}

func (b *CombinedBot) ChooseMove(_ context.Context, board domain.Board) (Move, error) {
	return onePly(board, b.Rng, botinternal.CombinedScore(b.Tuning), false), nil
}
