package bot

import (
	"context"

	botinternal "game2048/internal/bot/internal"
	"game2048/internal/domain"
)

// ExpectimaxBot looks Depth plies past the root move, averaging over spawns.
type ExpectimaxBot struct {
	Depth int
}

func (b *ExpectimaxBot) ChooseMove(ctx context.Context, board domain.Board) (Move, error) {
	res, ok := botinternal.Expectimax{Depth: b.Depth}.ChooseMove(ctx, board)
	if !ok {
		return NoMove, nil
	}
	return MoveTo(res.Direction), nil
}

// MCTSBot runs a Monte Carlo tree search and plays the most visited root move.
type MCTSBot struct {
	Iterations   int
	Exploration  float64
	RolloutDepth int
	Rng          domain.Rand

	// LastStats holds the statistics of the most recent search.
	LastStats botinternal.MCTSStats
}

func (b *MCTSBot) ChooseMove(ctx context.Context, board domain.Board) (Move, error) {
	search := botinternal.MCTS{
		Iterations:   b.Iterations,
		Exploration:  b.Exploration,
		RolloutDepth: b.RolloutDepth,
		Rng:          b.Rng,
	}
	res, ok := search.Search(ctx, board)
	if !ok {
		return NoMove, nil
	}
	b.LastStats = res.Stats
	return MoveTo(res.Direction), nil
}
