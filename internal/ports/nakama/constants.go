package nakama

const (
	// RpcCreateGame creates a single player match and returns its id.
	RpcCreateGame = "create_game"
	// RpcBotProfiles lists the bot presets clients can pick from.
	RpcBotProfiles = "bot_profiles"
	// RpcVerifyScore checks a score token issued at game over.
	RpcVerifyScore = "verify_score"

	// MatchName2048 is the authoritative match handler name registered with Nakama.
	MatchName2048 = "game2048_match"

	// ScoreTokenIssuer is the iss claim of score tokens.
	ScoreTokenIssuer = "game2048"

	// Environment keys read from the runtime context.
	EnvBotDelayMs       = "game2048_bot_delay_ms"
	EnvDefaultAlgorithm = "game2048_default_algorithm"
	EnvScoreSecret      = "game2048_score_secret"

	gameConfigPath  = "data/game_config.json"
	botProfilesPath = "data/bot_profiles.json"

	// tickRate is high enough for the bot pacing delays.
	tickRate = 10
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpMove            int64 = 1
	OpNewGame         int64 = 2
	OpToggleBot       int64 = 3
	OpCycleAlgorithm  int64 = 4
	OpTogglePause     int64 = 5
	OpConfigureBot    int64 = 6
	OpToggleHeuristic int64 = 7

	// Server -> Client events
	OpStateSnapshot int64 = 101
	OpMoveApplied   int64 = 102
	OpGameOver      int64 = 103
	OpBotDecision   int64 = 104
	OpGameError     int64 = 199
)
