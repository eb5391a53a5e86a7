package nakama

import (
	"encoding/json"
	"fmt"

	"game2048/internal/app"
	"game2048/internal/bot"
	"game2048/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func boardValue(b domain.Board) []interface{} {
	rows := make([]interface{}, 0, domain.GridSize)
	for _, row := range b.Rows() {
		cells := make([]interface{}, 0, len(row))
		for _, v := range row {
			cells = append(cells, v)
		}
		rows = append(rows, cells)
	}
	return rows
}

func directionsValue(ds []domain.Direction) []interface{} {
	out := make([]interface{}, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

func moveValue(m bot.Move) interface{} {
	if m.None {
		return nil
	}
	return m.Direction.String()
}

// configValue renders a search config as a plain JSON object.
func configValue(cfg bot.SearchConfig) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStruct(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}
	return proto.Marshal(s)
}

// decodeStruct reads a client payload. An empty payload is an empty struct.
func decodeStruct(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(data) == 0 {
		return s, nil
	}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return s, nil
}

// structJSON re-encodes a client struct as JSON for the JSON based parsers.
func structJSON(s *structpb.Struct) ([]byte, error) {
	return protojson.Marshal(s)
}

func stringField(s *structpb.Struct, name string) string {
	v, ok := s.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func snapshotFields(state *MatchState) (map[string]interface{}, error) {
	game := state.Session.State
	cfg, err := configValue(state.Search)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"board":       boardValue(game.Board),
		"score":       game.Score,
		"max_tile":    game.MaxTile(),
		"moves":       state.Session.Moves,
		"bot_moves":   state.Session.BotMoves,
		"terminal":    game.Terminal,
		"won":         game.Won(),
		"valid_moves": directionsValue(domain.ValidMoves(game.Board)),
		"bot": map[string]interface{}{
			"enabled":   state.BotEnabled,
			"paused":    state.BotPaused,
			"algorithm": string(state.Search.Algorithm),
			"profile":   state.Profile,
			"config":    cfg,
		},
	}, nil
}

func moveAppliedFields(p app.MoveAppliedPayload, state *MatchState) map[string]interface{} {
	return map[string]interface{}{
		"user_id":     p.UserID,
		"direction":   p.Direction.String(),
		"score_delta": p.ScoreDelta,
		"board":       boardValue(p.Board),
		"score":       p.Score,
		"by_bot":      p.ByBot,
		"valid_moves": directionsValue(domain.ValidMoves(state.Session.State.Board)),
	}
}

func botDecisionFields(p app.BotDecisionPayload) map[string]interface{} {
	return map[string]interface{}{
		"algorithm":  string(p.Algorithm),
		"direction":  moveValue(p.Move),
		"fallback":   p.Fallback,
		"cause":      p.Cause,
		"elapsed_ms": p.Elapsed.Milliseconds(),
	}
}

// labelString renders the match label as JSON through protojson.
func labelString(state *MatchState) (string, error) {
	l := domain.ComputeLabel(state.Session, state.botState())
	s, err := structpb.NewStruct(map[string]interface{}{
		"open":     l.Open,
		"game":     l.Game,
		"phase":    l.Phase,
		"owner":    l.Owner,
		"score":    l.Score,
		"max_tile": l.MaxTile,
		"bot":      l.BotState,
	})
	if err != nil {
		return "", err
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
