package httpapi

import (
	"encoding/json"
	"net/http"

	"game2048/internal/bot"
	"game2048/internal/config"
	"game2048/internal/domain"
)

type moveRequest struct {
	Board     [][]int `json:"board"`
	Direction string  `json:"direction"`
}

type moveResponse struct {
	Board      [][]int  `json:"board"`
	ScoreDelta int      `json:"score_delta"`
	Moved      bool     `json:"moved"`
	Terminal   bool     `json:"terminal"`
	ValidMoves []string `json:"valid_moves"`
}

// handleMove slides a board without spawning a tile.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	board, err := domain.BoardFromRows(req.Board)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := domain.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := domain.ApplyMove(board, dir)
	writeJSON(w, http.StatusOK, moveResponse{
		Board:      res.Board.Rows(),
		ScoreDelta: res.ScoreDelta,
		Moved:      res.Moved,
		Terminal:   domain.IsTerminal(res.Board),
		ValidMoves: directionNames(domain.ValidMoves(res.Board)),
	})
}

type chooseRequest struct {
	Board  [][]int         `json:"board"`
	Score  int             `json:"score"`
	Config json.RawMessage `json:"config,omitempty"`
}

type chooseResponse struct {
	Direction *string       `json:"direction"`
	Algorithm bot.Algorithm `json:"algorithm"`
	Fallback  bool          `json:"fallback"`
	Cause     string        `json:"cause,omitempty"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// handleChoose asks the bot for one move. The optional config overlays the
// configured search defaults.
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	board, err := domain.BoardFromRows(req.Board)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg := config.SearchDefaults()
	if len(req.Config) > 0 {
		cfg, err = bot.ParseSearchConfig(req.Config, cfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	rng, err := s.rngFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "seed must be an integer")
		return
	}

	ctx, cancel := s.searchContext(r.Context())
	defer cancel()
	decision := bot.NewController(rng).ChooseMove(ctx, domain.NewGameState(board, req.Score), cfg)
	resp := chooseResponse{
		Algorithm: decision.Algorithm,
		Fallback:  decision.Fallback,
		ElapsedMs: decision.Elapsed.Milliseconds(),
	}
	if !decision.Move.None {
		name := decision.Move.Direction.String()
		resp.Direction = &name
	}
	if decision.Cause != nil {
		resp.Cause = decision.Cause.Error()
		s.log.Warn().Err(decision.Cause).Str("algorithm", string(decision.Algorithm)).Msg("strategy failed, played random move")
	}
	writeJSON(w, http.StatusOK, resp)
}

type profileView struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name"`
	Description string           `json:"description,omitempty"`
	Config      bot.SearchConfig `json:"config"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := bot.ListProfiles()
	out := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileView{ID: p.ID, DisplayName: p.DisplayName, Description: p.Description, Config: p.Config})
	}
	writeJSON(w, http.StatusOK, out)
}
