package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"game2048/internal/app"
	"game2048/internal/bot"
	"game2048/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// CreateGameRequest is the optional payload of create_game.
type CreateGameRequest struct {
	Profile   string `json:"profile"`
	Algorithm string `json:"algorithm"`
	Bot       bool   `json:"bot"`
	Seed      int64  `json:"seed"`
}

// CreateGameResponse is returned to clients after the match was created.
type CreateGameResponse struct {
	MatchID string `json:"match_id"`
}

// BotProfileView is one entry of the bot_profiles response.
type BotProfileView struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name"`
	Description string           `json:"description,omitempty"`
	Algorithm   bot.Algorithm    `json:"algorithm"`
	Config      bot.SearchConfig `json:"config"`
}

// VerifyScoreResponse reports whether a score token is genuine.
type VerifyScoreResponse struct {
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Score     int    `json:"score,omitempty"`
	MaxTile   int    `json:"max_tile,omitempty"`
	Moves     int    `json:"moves,omitempty"`
	BotMoves  int    `json:"bot_moves,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcCreateGame, rpcCreateGame); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcBotProfiles, rpcBotProfiles); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcVerifyScore, rpcVerifyScore)
}

func rpcCreateGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req CreateGameRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
		}
	}
	if req.Profile != "" {
		if _, ok := bot.GetProfile(req.Profile); !ok {
			return "", runtime.NewError("Unknown bot profile", 3)
		}
	}
	if req.Algorithm != "" {
		if _, err := bot.ParseAlgorithm(req.Algorithm); err != nil {
			return "", runtime.NewError(err.Error(), 3)
		}
	}

	params := map[string]interface{}{
		"profile":   req.Profile,
		"algorithm": req.Algorithm,
		"bot":       req.Bot,
	}
	if req.Seed != 0 {
		params["seed"] = float64(req.Seed)
	}

	matchID, err := nk.MatchCreate(ctx, MatchName2048, params)
	if err != nil {
		logger.Error("rpcCreateGame [User:%s]: Failed to create match: %v", userID, err)
		return "", runtime.NewError("Internal error", 13) // INTERNAL
	}
	logger.Info("rpcCreateGame [User:%s]: Created match %s", userID, matchID)

	b, _ := json.Marshal(CreateGameResponse{MatchID: matchID})
	return string(b), nil
}

func rpcBotProfiles(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	profiles := bot.ListProfiles()
	out := make([]BotProfileView, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, BotProfileView{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Description: p.Description,
			Algorithm:   p.Config.Algorithm,
			Config:      p.Config,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		logger.Error("rpcBotProfiles: Failed to marshal profiles: %v", err)
		return "", runtime.NewError("Internal error", 13)
	}
	return string(b), nil
}

func rpcVerifyScore(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Token == "" {
		return "", runtime.NewError("Token required", 3)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env[EnvScoreSecret]
	if secret == "" {
		logger.Warn("rpcVerifyScore: %s is not set, score tokens cannot be verified.", EnvScoreSecret)
		return "", runtime.NewError("Score verification unavailable", 13)
	}

	signer := app.NewScoreSigner(secret, ScoreTokenIssuer, config.GetScoreTokenTTL())
	claims, err := signer.Verify(req.Token)
	resp := VerifyScoreResponse{Valid: err == nil}
	if err != nil {
		resp.Reason = err.Error()
	} else {
		resp.UserID = claims.UserID
		resp.Score = claims.Score
		resp.MaxTile = claims.MaxTile
		resp.Moves = claims.Moves
		resp.BotMoves = claims.BotMoves
		resp.Algorithm = claims.Algorithm
	}

	b, _ := json.Marshal(resp)
	return string(b), nil
}
