package internal

import (
	"context"
	"math"

	"game2048/internal/domain"
)

// Spawn weights of the chance ply.
const (
	spawnTwoWeight  = 1 - domain.FourProbability
	spawnFourWeight = domain.FourProbability
)

// cancelCheckEvery is how many nodes are visited between two context checks.
const cancelCheckEvery = 512

// Expectimax searches player plies (max) alternating with tile spawns (chance)
// down to Depth levels below the root move.
type Expectimax struct {
	Depth int
	// Eval scores leaves. EvaluateBoard when nil.
	Eval func(domain.Board) float64
}

// ExpectimaxResult is the outcome of one root decision.
type ExpectimaxResult struct {
	Direction domain.Direction
	Value     float64
	Nodes     int
	// Truncated is set when ctx ended the search before every root move was
	// searched to full depth.
	Truncated bool
}

type expectimaxRun struct {
	ctx   context.Context
	eval  func(domain.Board) float64
	nodes int
	// stopped turns every remaining node into a leaf.
	stopped bool
}

// ChooseMove returns the valid move with the highest expected value, the first
// one in Up, Down, Left, Right order on ties. It reports false only when b has
// no valid move. Once ctx is done the remaining nodes are scored statically:
// the first root move is always kept, a later one cut short is discarded.
func (e Expectimax) ChooseMove(ctx context.Context, b domain.Board) (ExpectimaxResult, bool) {
	moves := domain.ValidMoves(b)
	if len(moves) == 0 {
		return ExpectimaxResult{}, false
	}
	run := &expectimaxRun{ctx: ctx, eval: e.Eval, stopped: ctx.Err() != nil}
	if run.eval == nil {
		run.eval = EvaluateBoard
	}

	best := ExpectimaxResult{Direction: moves[0], Value: math.Inf(-1)}
	for i, d := range moves {
		if i > 0 && (run.stopped || ctx.Err() != nil) {
			run.stopped = true
			break
		}
		res := domain.ApplyMove(b, d)
		total := run.value(res.Board, e.Depth, false)
		if i > 0 && run.stopped {
			break
		}
		if math.IsInf(total, -1) {
			total = run.eval(res.Board)
		} else {
			total += float64(res.ScoreDelta)
		}
		if total > best.Value {
			best.Direction = d
			best.Value = total
		}
	}
	best.Nodes = run.nodes
	best.Truncated = run.stopped
	return best, true
}

// Value evaluates b as a max node (player) or a chance node (spawn).
func (e Expectimax) Value(b domain.Board, depth int, player bool) float64 {
	eval := e.Eval
	if eval == nil {
		eval = EvaluateBoard
	}
	run := &expectimaxRun{ctx: context.Background(), eval: eval}
	return run.value(b, depth, player)
}

func (r *expectimaxRun) value(b domain.Board, depth int, player bool) float64 {
	r.nodes++
	if !r.stopped && r.nodes%cancelCheckEvery == 0 && r.ctx.Err() != nil {
		r.stopped = true
	}
	if r.stopped || depth <= 0 || domain.IsTerminal(b) {
		return r.eval(b)
	}
	if player {
		return r.maxNode(b, depth)
	}
	return r.chanceNode(b, depth)
}

// maxNode ignores moves that lead to a certain loss and falls back to the
// static evaluation when every move does.
func (r *expectimaxRun) maxNode(b domain.Board, depth int) float64 {
	best := math.Inf(-1)
	for _, d := range domain.ValidMoves(b) {
		res := domain.ApplyMove(b, d)
		v := r.value(res.Board, depth-1, false)
		if math.IsInf(v, -1) {
			continue
		}
		if total := float64(res.ScoreDelta) + v; total > best {
			best = total
		}
	}
	if math.IsInf(best, -1) {
		return r.eval(b)
	}
	return best
}

// chanceNode averages over every empty cell, weighting a 2 and a 4 per cell.
func (r *expectimaxRun) chanceNode(b domain.Board, depth int) float64 {
	cells := b.EmptyCells()
	if len(cells) == 0 {
		return r.eval(b)
	}
	total := 0.0
	for _, c := range cells {
		total += spawnTwoWeight * r.spawnValue(b, c, 2, depth)
		total += spawnFourWeight * r.spawnValue(b, c, 4, depth)
	}
	return total / float64(len(cells))
}

func (r *expectimaxRun) spawnValue(b domain.Board, c domain.Cell, tile, depth int) float64 {
	b[c.Row][c.Col] = tile
	v := r.value(b, depth-1, true)
	if math.IsInf(v, -1) {
		return r.eval(b)
	}
	return v
}
