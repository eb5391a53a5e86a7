package results

import (
	"context"
	"fmt"

	"game2048/internal/ports"
)

// GameRecord describes a finished game.
type GameRecord struct {
	UserID    string
	Username  string
	Score     int
	MaxTile   int
	Moves     int
	BotMoves  int
	Algorithm string
	// ProfileUserID is the bot account credited when the bot made every move.
	ProfileUserID   string
	ProfileUsername string
}

// BotOnly reports whether every move of the game was made by the bot.
func (r GameRecord) BotOnly() bool {
	return r.Moves > 0 && r.BotMoves == r.Moves
}

// ManualMoves is the number of moves the player made.
func (r GameRecord) ManualMoves() int {
	if r.BotMoves >= r.Moves {
		return 0
	}
	return r.Moves - r.BotMoves
}

// Result captures non-fatal outcomes of recording a game.
type Result struct {
	// LeaderboardErr is set when the leaderboard write failed but the reward was still paid.
	LeaderboardErr error
	// RankedUserID is the account the leaderboard record was written for.
	RankedUserID string
	Reward       int64
	// Balance is the player's coin balance after the payout. BalanceErr is
	// set when it could not be read; the game is still recorded.
	Balance    int64
	BalanceErr error
}

// Rewarder computes the coin reward of a score.
type Rewarder func(score int) int64

// Service records finished games on the leaderboard and pays rewards.
type Service struct {
	leaderboard   ports.LeaderboardPort
	economy       ports.EconomyPort
	leaderboardID string
	reward        Rewarder
}

// NewService constructs a results service with required ports.
// leaderboard/economy must be non-nil; a nil reward pays nothing.
func NewService(leaderboard ports.LeaderboardPort, economy ports.EconomyPort, leaderboardID string, reward Rewarder) *Service {
	if reward == nil {
		reward = func(int) int64 { return 0 }
	}
	return &Service{
		leaderboard:   leaderboard,
		economy:       economy,
		leaderboardID: leaderboardID,
		reward:        reward,
	}
}

// RecordGame writes the leaderboard record and pays the coin reward.
// Games the bot played alone are ranked under the bot profile's account when
// one is known. The reward is scaled by the share of moves the player made
// by hand, so bot-only games pay nothing. Leaderboard failures are reported
// in the Result; a failed payout is returned as an error.
func (s *Service) RecordGame(ctx context.Context, rec GameRecord) (Result, error) {
	if s.leaderboard == nil || s.economy == nil {
		return Result{}, fmt.Errorf("results service not configured")
	}
	if rec.UserID == "" {
		return Result{}, fmt.Errorf("user is required")
	}

	result := Result{RankedUserID: rec.UserID}
	username := rec.Username
	if rec.BotOnly() && rec.ProfileUserID != "" {
		result.RankedUserID = rec.ProfileUserID
		username = rec.ProfileUsername
	}

	record := ports.ScoreRecord{
		LeaderboardID: s.leaderboardID,
		UserID:        result.RankedUserID,
		Username:      username,
		Score:         int64(rec.Score),
		Subscore:      int64(rec.MaxTile),
		Metadata: map[string]interface{}{
			"moves":     rec.Moves,
			"bot_moves": rec.BotMoves,
			"algorithm": rec.Algorithm,
		},
	}
	if err := s.leaderboard.WriteScore(ctx, record); err != nil {
		// Leaderboard writes are best-effort; rewards are more important.
		result.LeaderboardErr = err
	}

	coins := s.reward(rec.Score)
	if rec.Moves > 0 {
		coins = coins * int64(rec.ManualMoves()) / int64(rec.Moves)
	}
	if coins <= 0 {
		result.Balance, result.BalanceErr = s.economy.Balance(ctx, rec.UserID)
		return result, nil
	}
	rewards := []ports.Reward{
		{
			UserID: rec.UserID,
			Coins:  coins,
			Metadata: map[string]interface{}{
				"reason":       "game_reward",
				"score":        rec.Score,
				"max_tile":     rec.MaxTile,
				"manual_moves": rec.ManualMoves(),
			},
		},
	}
	balances, err := s.economy.Pay(ctx, rewards)
	if err != nil {
		return result, fmt.Errorf("failed to pay game reward: %w", err)
	}
	result.Reward = coins
	if balance, ok := balances[rec.UserID]; ok {
		result.Balance = balance
	} else {
		result.Balance, result.BalanceErr = s.economy.Balance(ctx, rec.UserID)
	}
	return result, nil
}
