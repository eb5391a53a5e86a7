package domain

// LabelPayload is the advertised match label of a hosted game.
type LabelPayload struct {
	Open     bool   `json:"open"`
	Game     string `json:"game"`
	Phase    string `json:"phase"`
	Owner    string `json:"owner"`
	Score    int    `json:"score"`
	MaxTile  int    `json:"max_tile"`
	BotState string `json:"bot"`
}

// ComputeLabel derives the label from a session. A game is open while it is
// still playing and has no owner yet.
func ComputeLabel(s *Session, botState string) LabelPayload {
	phase := s.Phase()
	return LabelPayload{
		Open:     phase == PhasePlaying && s.OwnerID == "",
		Game:     "2048",
		Phase:    string(phase),
		Owner:    s.OwnerID,
		Score:    s.State.Score,
		MaxTile:  s.State.MaxTile(),
		BotState: botState,
	}
}
