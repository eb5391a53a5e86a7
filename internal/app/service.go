package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"game2048/internal/bot"
	"game2048/internal/domain"
)

// Service contains 2048 use-cases operating on hosted sessions.
type Service struct {
	rng domain.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
// The rng spawns tiles; a Service shared by goroutines needs a safe source.
func NewService(rng domain.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNotOwner    = errors.New("actor is not the game owner")
	ErrGameOver    = errors.New("game is over")
	ErrMoveBlocked = errors.New("move does not change the board")
	ErrNoSession   = errors.New("no game in progress")
)

// Rand exposes the tile source so hosts can share it with a bot.Controller.
func (s *Service) Rand() domain.Rand {
	return s.rng
}

// NewGame starts a fresh session for ownerID with the starting tiles spawned.
func (s *Service) NewGame(ownerID string, algorithm bot.Algorithm) (*domain.Session, []Event) {
	sess := &domain.Session{
		State:     domain.NewGame(s.rng),
		OwnerID:   ownerID,
		Algorithm: string(algorithm),
	}
	return sess, []Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{Board: sess.State.Board, Score: sess.State.Score},
	}}
}

// Restart resets sess in place, keeping its owner and algorithm.
func (s *Service) Restart(sess *domain.Session) ([]Event, error) {
	if sess == nil {
		return nil, ErrNoSession
	}
	fresh, events := s.NewGame(sess.OwnerID, bot.Algorithm(sess.Algorithm))
	*sess = *fresh
	return events, nil
}

// Move applies a player's move.
func (s *Service) Move(sess *domain.Session, actorUserID string, d domain.Direction) ([]Event, error) {
	if sess == nil {
		return nil, ErrNoSession
	}
	if sess.OwnerID != "" && actorUserID != sess.OwnerID {
		return nil, ErrNotOwner
	}
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownDirection, int(d))
	}
	return s.apply(sess, actorUserID, d, false)
}

// BotStep asks ctrl for one move on sess and applies it. The decision is
// always returned so hosts can log fallbacks; when the board is terminal
// the decision holds no move and ErrGameOver is returned.
func (s *Service) BotStep(ctx context.Context, sess *domain.Session, ctrl *bot.Controller, cfg bot.SearchConfig) (bot.Decision, []Event, error) {
	if sess == nil {
		return bot.Decision{Move: bot.NoMove}, nil, ErrNoSession
	}
	if sess.State.Terminal {
		return bot.Decision{Move: bot.NoMove, Algorithm: cfg.Algorithm}, nil, ErrGameOver
	}

	decision := ctrl.ChooseMove(ctx, sess.State, cfg)
	payload := BotDecisionPayload{
		Algorithm: decision.Algorithm,
		Move:      decision.Move,
		Fallback:  decision.Fallback,
		Elapsed:   decision.Elapsed,
	}
	if decision.Cause != nil {
		payload.Cause = decision.Cause.Error()
	}
	events := []Event{{Kind: EventBotDecision, Payload: payload}}

	if decision.Move.None {
		return decision, events, ErrGameOver
	}
	moved, err := s.apply(sess, sess.OwnerID, decision.Move.Direction, true)
	if err != nil {
		return decision, events, err
	}
	return decision, append(events, moved...), nil
}

func (s *Service) apply(sess *domain.Session, actorUserID string, d domain.Direction, byBot bool) ([]Event, error) {
	if sess.State.Terminal {
		return nil, ErrGameOver
	}
	next, res := sess.State.Step(d, s.rng)
	if !res.Moved {
		return nil, fmt.Errorf("%w: %s", ErrMoveBlocked, d)
	}
	sess.State = next
	sess.Moves++
	if byBot {
		sess.BotMoves++
	}

	events := []Event{{
		Kind: EventMoveApplied,
		Payload: MoveAppliedPayload{
			UserID:     actorUserID,
			Direction:  d,
			ScoreDelta: res.ScoreDelta,
			Board:      next.Board,
			Score:      next.Score,
			ByBot:      byBot,
		},
	}}

	if next.Terminal {
		events = append(events, Event{
			Kind: EventGameOver,
			Payload: GameOverPayload{
				Score:    next.Score,
				MaxTile:  next.MaxTile(),
				Moves:    sess.Moves,
				BotMoves: sess.BotMoves,
				Won:      next.Won(),
			},
		})
	}
	return events, nil
}
