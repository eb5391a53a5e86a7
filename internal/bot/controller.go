package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"game2048/internal/domain"
)

var (
	ErrStrategyPanic = errors.New("strategy panicked")
	ErrInvalidMove   = errors.New("strategy chose a move that does not change the board")
)

// Decision is the outcome of one bot tick.
type Decision struct {
	Move      Move
	Algorithm Algorithm
	// Fallback is set when the configured strategy failed and the random
	// strategy decided instead. Cause holds the failure.
	Fallback bool
	Cause    error
	Elapsed  time.Duration
}

// Controller dispatches a bot tick to the configured strategy. Strategy
// errors and panics never escape: the random strategy answers instead.
// A Controller is not safe for concurrent use because its random source is not.
type Controller struct {
	rng      domain.Rand
	now      func() time.Time
	newBrain func(Algorithm, SearchConfig, domain.Rand) (Brain, error)
}

// NewController returns a controller drawing all randomness from rng.
// A nil rng is replaced by a time-seeded source.
func NewController(rng domain.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Controller{rng: rng, now: time.Now, newBrain: NewBrain}
}

// ChooseMove decides the next move for state. Terminal states yield NoMove.
// state is passed by value and never modified.
func (c *Controller) ChooseMove(ctx context.Context, state domain.GameState, cfg SearchConfig) Decision {
	start := c.now()
	d := Decision{Algorithm: cfg.Algorithm}

	if domain.IsTerminal(state.Board) {
		d.Move = NoMove
		d.Elapsed = c.now().Sub(start)
		return d
	}

	move, err := c.run(ctx, state.Board, cfg)
	if err == nil && !move.None && !domain.ApplyMove(state.Board, move.Direction).Moved {
		err = fmt.Errorf("%w: %s", ErrInvalidMove, move.Direction)
	}
	if err == nil && move.None {
		err = fmt.Errorf("%s returned no move on a playable board", cfg.Algorithm)
	}
	if err != nil {
		d.Fallback = true
		d.Cause = err
		move = randomMove(state.Board, c.rng)
	}
	d.Move = move
	d.Elapsed = c.now().Sub(start)
	return d
}

func (c *Controller) run(ctx context.Context, b domain.Board, cfg SearchConfig) (move Move, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStrategyPanic, r)
		}
	}()
	if err := cfg.Validate(); err != nil {
		return NoMove, err
	}
	brain, err := c.newBrain(cfg.Algorithm, cfg, c.rng)
	if err != nil {
		return NoMove, err
	}
	return brain.ChooseMove(ctx, b)
}
