package bot

import (
	"context"
	"time"

	"game2048/internal/domain"
)

// GameStats summarises a game played by an agent.
type GameStats struct {
	Moves     int
	Fallbacks int
	Score     int
	MaxTile   int
	Thinking  time.Duration
}

// Agent is an autonomous player bound to one profile.
type Agent struct {
	ID         string
	Name       string
	Config     SearchConfig
	Controller *Controller
}

// NewAgent binds a profile to a controller.
func NewAgent(p Profile, c *Controller) *Agent {
	return &Agent{ID: p.ID, Name: p.DisplayName, Config: p.Config.Clone(), Controller: c}
}

// Play asks the agent for its next move on state.
func (a *Agent) Play(ctx context.Context, state domain.GameState) Decision {
	return a.Controller.ChooseMove(ctx, state, a.Config)
}

// PlayGame plays from state until the board is terminal, maxMoves moves have
// been made (0 means no limit) or ctx is done.
func (a *Agent) PlayGame(ctx context.Context, state domain.GameState, rng domain.Rand, maxMoves int) (domain.GameState, GameStats) {
	var stats GameStats
	for !state.Terminal && (maxMoves <= 0 || stats.Moves < maxMoves) {
		if ctx.Err() != nil {
			break
		}
		d := a.Play(ctx, state)
		if d.Move.None {
			break
		}
		if d.Fallback {
			stats.Fallbacks++
		}
		stats.Thinking += d.Elapsed
		next, res := state.Step(d.Move.Direction, rng)
		if !res.Moved {
			break
		}
		state = next
		stats.Moves++
	}
	stats.Score = state.Score
	stats.MaxTile = state.MaxTile()
	return state, stats
}
