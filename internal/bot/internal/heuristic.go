package internal

import (
	"errors"
	"fmt"

	"game2048/internal/domain"
)

// Heuristic identifies one board scoring function of the combined bot.
type Heuristic int

const (
	HeuristicEmpty Heuristic = iota
	HeuristicCorner
	HeuristicMonotonicity
	HeuristicSmoothness
	HeuristicRemoveSmall

	heuristicCount
)

var ErrUnknownHeuristic = errors.New("unknown heuristic")

var heuristicNames = [heuristicCount]string{"empty", "corner", "monotonicity", "smoothness", "remove_small"}

// Heuristics lists every heuristic in its default order.
func Heuristics() []Heuristic {
	out := make([]Heuristic, heuristicCount)
	for i := range out {
		out[i] = Heuristic(i)
	}
	return out
}

// Name returns the configuration name of h.
func (h Heuristic) Name() string {
	if h < 0 || h >= heuristicCount {
		return fmt.Sprintf("heuristic(%d)", int(h))
	}
	return heuristicNames[h]
}

func (h Heuristic) String() string { return h.Name() }

// ParseHeuristic maps a configuration name to a Heuristic.
func ParseHeuristic(name string) (Heuristic, error) {
	for i, n := range heuristicNames {
		if n == name {
			return Heuristic(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
}

// Eval applies h to b.
func (h Heuristic) Eval(b domain.Board) float64 {
	switch h {
	case HeuristicEmpty:
		return EvalEmpty(b)
	case HeuristicCorner:
		return EvalMaxTileCorner(b)
	case HeuristicMonotonicity:
		return EvalMonotonicity(b)
	case HeuristicSmoothness:
		return EvalSmoothness(b)
	case HeuristicRemoveSmall:
		return EvalRemoveSmall(b, SmallTileThreshold)
	default:
		return 0
	}
}

// HeuristicSetting is the weight and switch of one heuristic.
type HeuristicSetting struct {
	Weight float64
	Active bool
}

// CombinedTuning is the user adjustable weighted sum of the combined bot.
// Order controls iteration; a heuristic contributes only when it is active
// and listed in Order.
type CombinedTuning struct {
	Settings [heuristicCount]HeuristicSetting
	Order    []Heuristic
}

// DefaultCombinedTuning returns the starting weights with every heuristic on.
func DefaultCombinedTuning() CombinedTuning {
	return CombinedTuning{
		Settings: [heuristicCount]HeuristicSetting{
			HeuristicEmpty:        {Weight: 1.0, Active: true},
			HeuristicCorner:       {Weight: 5.0, Active: true},
			HeuristicMonotonicity: {Weight: 1.0, Active: true},
			HeuristicSmoothness:   {Weight: 0.1, Active: true},
			HeuristicRemoveSmall:  {Weight: 0.5, Active: true},
		},
		Order: Heuristics(),
	}
}

// Score is the weighted sum of the active heuristics, in Order.
func (t CombinedTuning) Score(b domain.Board) float64 {
	total := 0.0
	for _, h := range t.Order {
		if h < 0 || h >= heuristicCount {
			continue
		}
		s := t.Settings[h]
		if s.Active {
			total += s.Weight * h.Eval(b)
		}
	}
	return total
}

// Toggle flips h. Switching on appends h to Order, switching off removes it.
// The receiver is left untouched; the updated tuning is returned.
func (t CombinedTuning) Toggle(h Heuristic) CombinedTuning {
	if h < 0 || h >= heuristicCount {
		return t
	}
	out := t.Clone()
	out.Settings[h].Active = !out.Settings[h].Active
	if out.Settings[h].Active {
		if !out.inOrder(h) {
			out.Order = append(out.Order, h)
		}
		return out
	}
	kept := out.Order[:0]
	for _, o := range out.Order {
		if o != h {
			kept = append(kept, o)
		}
	}
	out.Order = kept
	return out
}

// ActiveOrder lists the heuristics that currently contribute, in Order.
func (t CombinedTuning) ActiveOrder() []Heuristic {
	out := make([]Heuristic, 0, len(t.Order))
	for _, h := range t.Order {
		if h >= 0 && h < heuristicCount && t.Settings[h].Active {
			out = append(out, h)
		}
	}
	return out
}

// Clone copies the tuning so the Order slice is not shared.
func (t CombinedTuning) Clone() CombinedTuning {
	out := t
	out.Order = append([]Heuristic(nil), t.Order...)
	return out
}

func (t CombinedTuning) inOrder(h Heuristic) bool {
	for _, o := range t.Order {
		if o == h {
			return true
		}
	}
	return false
}
