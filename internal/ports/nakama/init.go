package nakama

import (
	"context"
	"database/sql"

	"game2048/internal/app/roster"
	"game2048/internal/bot"
	"game2048/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("InitModule: Could not load game config, using defaults: %v", err)
	}

	profilesPath := botProfilesPath
	if cfg := config.GetGameConfig(); cfg != nil && cfg.BotProfilesPath != "" {
		profilesPath = cfg.BotProfilesPath
	}
	if err := bot.LoadProfiles(profilesPath); err != nil {
		logger.Warn("InitModule: Could not load bot profiles, using built-in roster: %v", err)
	}

	if err := NewNakamaLeaderboardAdapter(nk).EnsureLeaderboard(ctx, config.GetLeaderboardID()); err != nil {
		logger.Error("InitModule: %v", err)
	}

	result, err := roster.NewService(NewNakamaAccountAdapter(nk)).Provision(ctx, bot.ListProfiles())
	for id, failure := range result.Failed {
		logger.Error("InitModule: Failed to provision bot %s: %v", id, failure)
	}
	for id, failure := range result.ProfileUpdateErrs {
		logger.Warn("InitModule: Failed to update bot account %s: %v", id, failure)
	}
	if err != nil {
		logger.Warn("InitModule: Bot games will be ranked under their players: %v", err)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchName2048, NewMatch); err != nil {
		return err
	}

	logger.Info("2048 Go module loaded with %d bot profiles.", len(result.Ready))
	return nil
}
