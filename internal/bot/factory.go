package bot

import (
	"fmt"

	"game2048/internal/domain"
)

// NewBrain creates the strategy for algo using the parameters in cfg.
func NewBrain(algo Algorithm, cfg SearchConfig, rng domain.Rand) (Brain, error) {
	if rng == nil {
		return nil, fmt.Errorf("new %s brain: nil random source", algo)
	}
	switch algo {
	case AlgorithmRandom:
		return &RandomBot{Rng: rng}, nil
	case AlgorithmGreedy:
		return &GreedyBot{Rng: rng}, nil
	case AlgorithmHeuristic:
		return &HeuristicBot{Rng: rng}, nil
	case AlgorithmRemoveSmall:
		return &RemoveSmallBot{Rng: rng}, nil
	case AlgorithmCombined:
		tuning, err := cfg.Combined.Tuning()
		if err != nil {
			return nil, err
		}
		return &CombinedBot{Rng: rng, Tuning: tuning}, nil
	case AlgorithmExpectimax:
		return &ExpectimaxBot{Depth: cfg.ExpectimaxDepth}, nil
	case AlgorithmMCTS:
		return &MCTSBot{
			Iterations:   cfg.MCTSIterations,
			Exploration:  cfg.MCTSExploration,
			RolloutDepth: cfg.MCTSRolloutDepth,
			Rng:          rng,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
	}
}
