package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	botinternal "game2048/internal/bot/internal"
)

const (
	DefaultExpectimaxDepth  = 2
	DefaultMCTSIterations   = 500
	DefaultMCTSExploration  = 1.414
	DefaultMCTSRolloutDepth = 10

	// Upper bounds keep a single decision from stalling a host loop.
	MaxExpectimaxDepth  = 6
	MaxMCTSIterations   = 200_000
	MaxMCTSRolloutDepth = 1_000
)

var ErrInvalidConfig = errors.New("invalid search config")

// SearchConfig selects an algorithm and carries its parameters.
type SearchConfig struct {
	Algorithm        Algorithm      `json:"algorithm"`
	ExpectimaxDepth  int            `json:"expectimax_depth"`
	MCTSIterations   int            `json:"mcts_iterations"`
	MCTSExploration  float64        `json:"mcts_exploration"`
	MCTSRolloutDepth int            `json:"mcts_rollout_depth"`
	Combined         CombinedConfig `json:"combined"`
}

// CombinedConfig is the user facing form of the combined bot's weights.
// Keys are heuristic names: empty, corner, monotonicity, smoothness, remove_small.
type CombinedConfig struct {
	Weights map[string]float64 `json:"weights,omitempty"`
	Active  map[string]bool    `json:"active,omitempty"`
	Order   []string           `json:"order,omitempty"`
}

// DefaultSearchConfig returns the heuristic bot with default search parameters.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Algorithm:        AlgorithmHeuristic,
		ExpectimaxDepth:  DefaultExpectimaxDepth,
		MCTSIterations:   DefaultMCTSIterations,
		MCTSExploration:  DefaultMCTSExploration,
		MCTSRolloutDepth: DefaultMCTSRolloutDepth,
		Combined:         CombinedConfigFrom(botinternal.DefaultCombinedTuning()),
	}
}

// WithAlgorithm returns a copy of c using a.
func (c SearchConfig) WithAlgorithm(a Algorithm) SearchConfig {
	out := c.Clone()
	out.Algorithm = a
	return out
}

// Clone deep copies the combined maps and order.
func (c SearchConfig) Clone() SearchConfig {
	out := c
	if c.Combined.Weights != nil {
		out.Combined.Weights = make(map[string]float64, len(c.Combined.Weights))
		for k, v := range c.Combined.Weights {
			out.Combined.Weights[k] = v
		}
	}
	if c.Combined.Active != nil {
		out.Combined.Active = make(map[string]bool, len(c.Combined.Active))
		for k, v := range c.Combined.Active {
			out.Combined.Active[k] = v
		}
	}
	if c.Combined.Order != nil {
		out.Combined.Order = append([]string(nil), c.Combined.Order...)
	}
	return out
}

// ParseSearchConfig decodes JSON on top of base. Fields absent from data keep
// base's values. The result is validated.
func ParseSearchConfig(data []byte, base SearchConfig) (SearchConfig, error) {
	out := base.Clone()
	if err := json.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// Validate checks the algorithm name, the numeric ranges and the heuristic names.
func (c SearchConfig) Validate() error {
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.ExpectimaxDepth < 1 || c.ExpectimaxDepth > MaxExpectimaxDepth {
		return fmt.Errorf("%w: expectimax_depth must be in [1,%d], got %d", ErrInvalidConfig, MaxExpectimaxDepth, c.ExpectimaxDepth)
	}
	if c.MCTSIterations < 1 || c.MCTSIterations > MaxMCTSIterations {
		return fmt.Errorf("%w: mcts_iterations must be in [1,%d], got %d", ErrInvalidConfig, MaxMCTSIterations, c.MCTSIterations)
	}
	if !(c.MCTSExploration > 0) || math.IsInf(c.MCTSExploration, 0) {
		return fmt.Errorf("%w: mcts_exploration must be positive, got %v", ErrInvalidConfig, c.MCTSExploration)
	}
	if c.MCTSRolloutDepth < 1 || c.MCTSRolloutDepth > MaxMCTSRolloutDepth {
		return fmt.Errorf("%w: mcts_rollout_depth must be in [1,%d], got %d", ErrInvalidConfig, MaxMCTSRolloutDepth, c.MCTSRolloutDepth)
	}
	if _, err := c.Combined.Tuning(); err != nil {
		return err
	}
	return nil
}

// Tuning converts the configuration into the combined bot's weights. Missing
// entries keep their defaults; a nil Order keeps the default order.
func (c CombinedConfig) Tuning() (botinternal.CombinedTuning, error) {
	t := botinternal.DefaultCombinedTuning()
	for name, w := range c.Weights {
		h, err := botinternal.ParseHeuristic(name)
		if err != nil {
			return t, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return t, fmt.Errorf("%w: weight of %s must be finite", ErrInvalidConfig, name)
		}
		t.Settings[h].Weight = w
	}
	for name, on := range c.Active {
		h, err := botinternal.ParseHeuristic(name)
		if err != nil {
			return t, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		t.Settings[h].Active = on
	}
	if c.Order != nil {
		order := make([]botinternal.Heuristic, 0, len(c.Order))
		seen := make(map[botinternal.Heuristic]bool, len(c.Order))
		for _, name := range c.Order {
			h, err := botinternal.ParseHeuristic(name)
			if err != nil {
				return t, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			}
			if seen[h] {
				return t, fmt.Errorf("%w: %s listed twice in order", ErrInvalidConfig, name)
			}
			seen[h] = true
			order = append(order, h)
		}
		t.Order = order
	}
	return t, nil
}

// CombinedConfigFrom renders a tuning in configuration form.
func CombinedConfigFrom(t botinternal.CombinedTuning) CombinedConfig {
	cfg := CombinedConfig{
		Weights: make(map[string]float64),
		Active:  make(map[string]bool),
		Order:   make([]string, 0, len(t.Order)),
	}
	for _, h := range botinternal.Heuristics() {
		cfg.Weights[h.Name()] = t.Settings[h].Weight
		cfg.Active[h.Name()] = t.Settings[h].Active
	}
	for _, h := range t.Order {
		cfg.Order = append(cfg.Order, h.Name())
	}
	return cfg
}

// ToggleHeuristic flips one heuristic of the combined bot the way the
// interactive toggle does: switching on appends to the order, switching off
// removes from it.
func (c SearchConfig) ToggleHeuristic(name string) (SearchConfig, error) {
	h, err := botinternal.ParseHeuristic(name)
	if err != nil {
		return c, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	t, err := c.Combined.Tuning()
	if err != nil {
		return c, err
	}
	out := c.Clone()
	out.Combined = CombinedConfigFrom(t.Toggle(h))
	return out, nil
}
