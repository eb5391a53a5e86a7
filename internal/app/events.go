package app

import (
	"time"

	"game2048/internal/bot"
	"game2048/internal/domain"
)

// EventKind identifies emitted game events for host dispatch.
type EventKind string

const (
	EventGameStarted EventKind = "game_started"
	EventMoveApplied EventKind = "move_applied"
	EventBotDecision EventKind = "bot_decision"
	EventGameOver    EventKind = "game_over"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	Board domain.Board
	Score int
}

type MoveAppliedPayload struct {
	UserID     string
	Direction  domain.Direction
	ScoreDelta int
	Board      domain.Board
	Score      int
	ByBot      bool
}

type BotDecisionPayload struct {
	Algorithm bot.Algorithm
	Move      bot.Move
	Fallback  bool
	Cause     string
	Elapsed   time.Duration
}

type GameOverPayload struct {
	Score    int
	MaxTile  int
	Moves    int
	BotMoves int
	Won      bool
}
