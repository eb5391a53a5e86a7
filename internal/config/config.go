package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"game2048/internal/bot"
)

const (
	DefaultBotDelayMs      = 300
	DefaultSearchDelayMs   = 100
	DefaultSearchBudgetMs  = 80
	DefaultLeaderboardID   = "game2048_high_scores"
	DefaultCoinsPerPoints  = 100
	DefaultMaxRewardCoins  = 500
	DefaultScoreTokenHours = 24
)

// GameConfig is the host configuration of hosted games. BotDelayMs is the
// pause between two bot moves; SearchDelayMs is the floor applied to the tree
// search algorithms. SearchBudgetMs bounds the wall time of one hosted bot
// decision.
type GameConfig struct {
	BotDelayMs       int              `json:"bot_delay_ms"`
	SearchDelayMs    int              `json:"search_delay_ms"`
	SearchBudgetMs   int              `json:"search_budget_ms"`
	DefaultAlgorithm bot.Algorithm    `json:"default_algorithm"`
	Search           bot.SearchConfig `json:"-"`
	RawSearch        json.RawMessage  `json:"search,omitempty"`
	LeaderboardID    string           `json:"leaderboard_id"`
	CoinsPerPoints   int64            `json:"coins_per_points"`
	MaxRewardCoins   int64            `json:"max_reward_coins"`
	ScoreTokenHours  int              `json:"score_token_hours"`
	BotProfilesPath  string           `json:"bot_profiles_path"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// DefaultGameConfig returns the configuration used when nothing was loaded.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		BotDelayMs:       DefaultBotDelayMs,
		SearchDelayMs:    DefaultSearchDelayMs,
		SearchBudgetMs:   DefaultSearchBudgetMs,
		DefaultAlgorithm: bot.AlgorithmHeuristic,
		Search:           bot.DefaultSearchConfig(),
		LeaderboardID:    DefaultLeaderboardID,
		CoinsPerPoints:   DefaultCoinsPerPoints,
		MaxRewardCoins:   DefaultMaxRewardCoins,
		ScoreTokenHours:  DefaultScoreTokenHours,
	}
}

// ParseGameConfig decodes data on top of the defaults. The search block is
// validated the same way a client supplied bot configuration is.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	c := DefaultGameConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if len(c.RawSearch) > 0 {
		search, err := bot.ParseSearchConfig(c.RawSearch, c.Search)
		if err != nil {
			return nil, fmt.Errorf("game config search block: %w", err)
		}
		c.Search = search
	}
	if c.DefaultAlgorithm != "" {
		algo, err := bot.ParseAlgorithm(string(c.DefaultAlgorithm))
		if err != nil {
			return nil, fmt.Errorf("game config default_algorithm: %w", err)
		}
		c.DefaultAlgorithm = algo
	}
	if c.BotDelayMs < 0 || c.SearchDelayMs < 0 || c.SearchBudgetMs < 0 {
		return nil, fmt.Errorf("game config delays must not be negative")
	}
	if c.CoinsPerPoints < 0 || c.MaxRewardCoins < 0 {
		return nil, fmt.Errorf("game config rewards must not be negative")
	}
	return c, nil
}

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		c, err := ParseGameConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or nil when none was loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

func current() *GameConfig {
	if cfg == nil {
		return DefaultGameConfig()
	}
	return cfg
}

// BotDelay is the pause between bot moves for algo. The tree searches never
// run faster than the search delay.
func BotDelay(algo bot.Algorithm) time.Duration {
	c := current()
	ms := c.BotDelayMs
	if algo.Searches() && ms < c.SearchDelayMs {
		ms = c.SearchDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}

// SearchFloor is the minimum pause between two tree search moves.
func SearchFloor() time.Duration {
	return time.Duration(current().SearchDelayMs) * time.Millisecond
}

// SearchBudget is the deadline given to one hosted bot decision. A zero
// budget in the loaded config falls back to DefaultSearchBudgetMs.
func SearchBudget() time.Duration {
	ms := current().SearchBudgetMs
	if ms <= 0 {
		ms = DefaultSearchBudgetMs
	}
	return time.Duration(ms) * time.Millisecond
}

// SearchDefaults returns a copy of the configured search parameters with the
// default algorithm applied.
func SearchDefaults() bot.SearchConfig {
	c := current()
	out := c.Search.Clone()
	if c.DefaultAlgorithm != "" {
		out.Algorithm = c.DefaultAlgorithm
	}
	return out
}

// GetLeaderboardID returns the leaderboard finished games are written to.
func GetLeaderboardID() string {
	c := current()
	if c.LeaderboardID == "" {
		return DefaultLeaderboardID
	}
	return c.LeaderboardID
}

// GetReward returns the coin reward for score: one coin per CoinsPerPoints
// points, capped at MaxRewardCoins. A zero rate disables rewards.
func GetReward(score int) int64 {
	c := current()
	if c.CoinsPerPoints <= 0 || score <= 0 {
		return 0
	}
	coins := int64(score) / c.CoinsPerPoints
	if c.MaxRewardCoins > 0 && coins > c.MaxRewardCoins {
		coins = c.MaxRewardCoins
	}
	return coins
}

// GetScoreTokenTTL returns how long signed score tokens stay valid.
func GetScoreTokenTTL() time.Duration {
	c := current()
	if c.ScoreTokenHours <= 0 {
		return DefaultScoreTokenHours * time.Hour
	}
	return time.Duration(c.ScoreTokenHours) * time.Hour
}
