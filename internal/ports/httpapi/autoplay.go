package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"game2048/internal/bot"
	"game2048/internal/config"
	"game2048/internal/domain"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var errBadQuery = errors.New("bad query")

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// autoplayFrame is sent once per bot move. The first frame carries the
// starting board and no direction.
type autoplayFrame struct {
	Board      [][]int       `json:"board"`
	Score      int           `json:"score"`
	Direction  *string       `json:"direction"`
	ScoreDelta int           `json:"score_delta"`
	Algorithm  bot.Algorithm `json:"algorithm"`
	Fallback   bool          `json:"fallback,omitempty"`
	Move       int           `json:"move"`
	Terminal   bool          `json:"terminal"`
}

type autoplayParams struct {
	cfg      bot.SearchConfig
	maxMoves int
}

func parseAutoplayParams(r *http.Request) (autoplayParams, error) {
	q := r.URL.Query()
	p := autoplayParams{cfg: config.SearchDefaults()}
	if id := q.Get("profile"); id != "" {
		profile, ok := bot.GetProfile(id)
		if !ok {
			return p, fmt.Errorf("%w: unknown profile %q", errBadQuery, id)
		}
		p.cfg = profile.Config.Clone()
	}
	if name := q.Get("algorithm"); name != "" {
		algo, err := bot.ParseAlgorithm(name)
		if err != nil {
			return p, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		p.cfg.Algorithm = algo
	}
	if raw := q.Get("max_moves"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, fmt.Errorf("%w: max_moves must be a non-negative integer", errBadQuery)
		}
		p.maxMoves = n
	}
	return p, nil
}

// handleAutoplay plays a whole game with the bot and streams every move over
// a websocket until the game ends, max_moves is reached or the client leaves.
func (s *Server) handleAutoplay(w http.ResponseWriter, r *http.Request) {
	params, err := parseAutoplayParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := s.rngFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "seed must be an integer")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Reading is needed to observe the client's close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := s.log.With().Str("algorithm", string(params.cfg.Algorithm)).Logger()
	state := domain.NewGame(rng)
	ctrl := bot.NewController(rng)
	delay := s.delay(params.cfg.Algorithm)

	frame := autoplayFrame{Board: state.Board.Rows(), Score: state.Score, Algorithm: params.cfg.Algorithm, Terminal: state.Terminal}
	if err := writeFrame(conn, frame); err != nil {
		return
	}

	moves := 0
	for !state.Terminal && (params.maxMoves == 0 || moves < params.maxMoves) {
		if !sleepCtx(ctx, delay) {
			log.Debug().Int("moves", moves).Msg("autoplay client left")
			return
		}
		searchCtx, cancelSearch := s.searchContext(ctx)
		decision := ctrl.ChooseMove(searchCtx, state, params.cfg)
		cancelSearch()
		if decision.Move.None {
			break
		}
		if decision.Fallback {
			log.Warn().Err(decision.Cause).Msg("strategy failed, played random move")
		}
		next, res := state.Step(decision.Move.Direction, rng)
		if !res.Moved {
			break
		}
		state = next
		moves++

		name := decision.Move.Direction.String()
		frame = autoplayFrame{
			Board:      state.Board.Rows(),
			Score:      state.Score,
			Direction:  &name,
			ScoreDelta: res.ScoreDelta,
			Algorithm:  decision.Algorithm,
			Fallback:   decision.Fallback,
			Move:       moves,
			Terminal:   state.Terminal,
		}
		if err := writeFrame(conn, frame); err != nil {
			log.Debug().Err(err).Msg("autoplay write failed")
			return
		}
	}

	log.Info().Int("moves", moves).Int("score", state.Score).Int("max_tile", state.MaxTile()).Msg("autoplay finished")
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
}

func writeFrame(conn *websocket.Conn, frame autoplayFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

// sleepCtx waits for d and reports whether ctx is still live.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
