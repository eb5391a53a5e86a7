package domain

// Phase represents the lifecycle stage of a hosted game.
type Phase string

const (
	// PhasePlaying indicates moves are accepted.
	PhasePlaying Phase = "playing"
	// PhaseEnded indicates the board is terminal.
	PhaseEnded Phase = "ended"
)

// Session is a hosted game: the current state plus the bookkeeping a host
// needs to report results.
type Session struct {
	State     GameState
	Moves     int
	BotMoves  int
	OwnerID   string
	Algorithm string
}

// PhaseOf returns the phase implied by the game state.
func PhaseOf(s GameState) Phase {
	if s.Terminal {
		return PhaseEnded
	}
	return PhasePlaying
}

// Phase reports the current phase of the session.
func (s *Session) Phase() Phase {
	return PhaseOf(s.State)
}
