package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"game2048/internal/domain"
)

// Algorithm names a move selection strategy.
type Algorithm string

const (
	AlgorithmRandom      Algorithm = "random"
	AlgorithmGreedy      Algorithm = "greedy"
	AlgorithmHeuristic   Algorithm = "heuristic"
	AlgorithmRemoveSmall Algorithm = "remove_small"
	AlgorithmCombined    Algorithm = "combined"
	AlgorithmExpectimax  Algorithm = "expectimax"
	AlgorithmMCTS        Algorithm = "mcts"
)

var algorithms = []Algorithm{
	AlgorithmRandom,
	AlgorithmGreedy,
	AlgorithmHeuristic,
	AlgorithmRemoveSmall,
	AlgorithmCombined,
	AlgorithmExpectimax,
	AlgorithmMCTS,
}

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithms lists every algorithm in cycling order.
func Algorithms() []Algorithm {
	return append([]Algorithm(nil), algorithms...)
}

// ParseAlgorithm accepts an algorithm name, case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	name := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range algorithms {
		if a == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	_, err := ParseAlgorithm(string(a))
	return err == nil
}

// Next returns the algorithm after a in cycling order, wrapping around.
// Unknown names restart the cycle.
func (a Algorithm) Next() Algorithm {
	for i, candidate := range algorithms {
		if candidate == a {
			return algorithms[(i+1)%len(algorithms)]
		}
	}
	return algorithms[0]
}

// Searches reports whether a runs a tree search rather than a one-ply scan.
func (a Algorithm) Searches() bool {
	return a == AlgorithmExpectimax || a == AlgorithmMCTS
}

// Move is a bot decision: a direction, or None when the board has no valid move.
type Move struct {
	Direction domain.Direction
	None      bool
}

// NoMove is the decision for a terminal board.
var NoMove = Move{None: true}

// MoveTo wraps a direction.
func MoveTo(d domain.Direction) Move {
	return Move{Direction: d}
}

func (m Move) String() string {
	if m.None {
		return "none"
	}
	return m.Direction.String()
}

// Brain is the interface that all bot strategies implement. Implementations
// never modify the board they are given.
type Brain interface {
	ChooseMove(ctx context.Context, b domain.Board) (Move, error)
}
