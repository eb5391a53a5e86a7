package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"game2048/internal/app"
	"game2048/internal/app/results"
	"game2048/internal/bot"
	"game2048/internal/config"
	"game2048/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Session        *domain.Session             `json:"-"`
	Owner          string                      `json:"owner"`          // User id of the player; empty until the first join
	OwnerName      string                      `json:"owner_name"`     // Username used for leaderboard records
	Profile        string                      `json:"profile"`        // Bot profile the match was created with, if any
	Search         bot.SearchConfig            `json:"search"`         // Active bot configuration
	BotEnabled     bool                        `json:"bot_enabled"`    // Whether the bot plays
	BotPaused      bool                        `json:"bot_paused"`     // Pause only affects bot mode
	BotDelayMs     int                         `json:"bot_delay_ms"`   // Env override of the configured delay; 0 uses config
	BotWaitUntilMs int64                       `json:"bot_wait_until"` // Unix ms when the bot may act next
	Recorded       bool                        `json:"recorded"`       // Whether the finished game was recorded
	Tick           int64                       `json:"tick"`           // Current tick of the match
	Presences      map[string]runtime.Presence `json:"-"`              // Map UserId -> Presence for targeted messaging
	App            *app.Service                `json:"-"`              // Game use-cases
	Controller     *bot.Controller             `json:"-"`              // Bot move selection
	Results        *results.Service            `json:"-"`              // Leaderboard and rewards; nil disables recording
	Signer         *app.ScoreSigner            `json:"-"`              // Score tokens; nil disables them
	now            func() time.Time
}

func (ms *MatchState) nowMs() int64 {
	if ms.now == nil {
		return time.Now().UnixMilli()
	}
	return ms.now().UnixMilli()
}

func (ms *MatchState) botState() string {
	switch {
	case !ms.BotEnabled:
		return "off"
	case ms.BotPaused:
		return "paused"
	default:
		return string(ms.Search.Algorithm)
	}
}

// botDelay is the pause before the next bot move. Tree searches never go
// below the configured search floor.
func (ms *MatchState) botDelay() time.Duration {
	if ms.BotDelayMs <= 0 {
		return config.BotDelay(ms.Search.Algorithm)
	}
	d := time.Duration(ms.BotDelayMs) * time.Millisecond
	if floor := config.SearchFloor(); ms.Search.Algorithm.Searches() && d < floor {
		d = floor
	}
	return d
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created. Params come from the
// create_game RPC: profile, algorithm, bot and seed, all optional.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	seed := time.Now().UnixNano()
	if v, ok := params["seed"].(float64); ok && v != 0 {
		seed = int64(v)
	}
	rng := rand.New(rand.NewSource(seed))

	search := config.SearchDefaults()
	if val, ok := env[EnvDefaultAlgorithm]; ok {
		if algo, err := bot.ParseAlgorithm(val); err == nil {
			search.Algorithm = algo
		} else {
			logger.Warn("MatchInit: Ignoring %s: %v", EnvDefaultAlgorithm, err)
		}
	}

	state := &MatchState{
		Presences:  make(map[string]runtime.Presence),
		App:        app.NewService(rng),
		Controller: bot.NewController(rng),
		Search:     search,
	}
	if val, ok := env[EnvBotDelayMs]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			state.BotDelayMs = i
		}
	}

	if id, ok := params["profile"].(string); ok && id != "" {
		if p, found := bot.GetProfile(id); found {
			state.Profile = p.ID
			state.Search = p.Config.Clone()
		} else {
			logger.Warn("MatchInit: Unknown bot profile %q", id)
		}
	}
	if name, ok := params["algorithm"].(string); ok && name != "" {
		if algo, err := bot.ParseAlgorithm(name); err == nil {
			state.Search.Algorithm = algo
		}
	}
	if on, ok := params["bot"].(bool); ok {
		state.BotEnabled = on
	}

	if nk != nil {
		state.Results = results.NewService(NewNakamaLeaderboardAdapter(nk), NewWalletEconomy(nk), config.GetLeaderboardID(), config.GetReward)
	}
	if secret := env[EnvScoreSecret]; secret != "" {
		state.Signer = app.NewScoreSigner(secret, ScoreTokenIssuer, config.GetScoreTokenTTL())
	}

	state.Session, _ = state.App.NewGame("", state.Search.Algorithm)

	label, err := labelString(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

// MatchJoinAttempt admits the first player and later reconnects of that player.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if matchState.Owner != "" && matchState.Owner != presence.GetUserId() {
		return state, false, "Game already has a player"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		if matchState.Owner == "" {
			matchState.Owner = p.GetUserId()
			matchState.OwnerName = p.GetUsername()
			matchState.Session.OwnerID = p.GetUserId()
			logger.Debug("MatchJoin: Owner set to %s.", p.GetUserId())
		}
	}
	if matchState.BotEnabled && matchState.BotWaitUntilMs == 0 {
		matchState.BotWaitUntilMs = matchState.nowMs() + matchState.botDelay().Milliseconds()
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave ends the match once the player is gone.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no players.")
		return nil
	}
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		if msg.GetUserId() != matchState.Owner {
			logger.Warn("MatchLoop: Ignoring opcode %d from non-owner %s", msg.GetOpCode(), msg.GetUserId())
			continue
		}
		switch msg.GetOpCode() {
		case OpMove:
			mh.handleMove(ctx, matchState, dispatcher, logger, msg)
		case OpNewGame:
			mh.handleNewGame(ctx, matchState, dispatcher, logger)
		case OpToggleBot:
			mh.handleToggleBot(matchState, dispatcher, logger)
		case OpCycleAlgorithm:
			mh.handleCycleAlgorithm(matchState, dispatcher, logger)
		case OpTogglePause:
			mh.handleTogglePause(matchState, dispatcher, logger, msg)
		case OpConfigureBot:
			mh.handleConfigureBot(matchState, dispatcher, logger, msg)
		case OpToggleHeuristic:
			mh.handleToggleHeuristic(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processBot(ctx, matchState, dispatcher, logger)

	return matchState
}

// processBot plays one bot move when bot mode is on, not paused, the game is
// not over and the pacing delay has elapsed.
func (mh *matchHandler) processBot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if !state.BotEnabled || state.BotPaused || state.Session == nil || state.Session.State.Terminal {
		return
	}
	now := state.nowMs()
	if state.BotWaitUntilMs == 0 {
		state.BotWaitUntilMs = now + state.botDelay().Milliseconds()
		return
	}
	if now < state.BotWaitUntilMs {
		return
	}
	state.BotWaitUntilMs = now + state.botDelay().Milliseconds()

	// The search runs inside the match loop, so it must end before the next tick.
	searchCtx, cancel := context.WithTimeout(ctx, config.SearchBudget())
	decision, events, err := state.App.BotStep(searchCtx, state.Session, state.Controller, state.Search)
	cancel()
	if decision.Fallback {
		logger.Warn("processBot: %s failed, played random move instead: %v", decision.Algorithm, decision.Cause)
	}
	logger.Debug("processBot: %s chose %s in %v", decision.Algorithm, decision.Move, decision.Elapsed)
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	if err != nil && !errors.Is(err, app.ErrGameOver) {
		logger.Error("processBot: Bot move failed: %v", err)
	}
}

func (mh *matchHandler) handleMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.BotEnabled {
		mh.sendError(state, dispatcher, logger, senderID, 409, "manual moves are disabled while the bot is playing")
		return
	}

	request, err := decodeStruct(msg.GetData())
	if err != nil {
		logger.Warn("handleMove: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	dir, err := domain.ParseDirection(stringField(request, "direction"))
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	events, err := state.App.Move(state.Session, senderID, dir)
	if err != nil {
		logger.Debug("handleMove: User %s failed to move %s: %v", senderID, dir, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleNewGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.Session.Algorithm = string(state.Search.Algorithm)
	events, err := state.App.Restart(state.Session)
	if err != nil {
		logger.Error("handleNewGame: Failed to restart: %v", err)
		return
	}
	state.Recorded = false
	state.BotWaitUntilMs = 0
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	mh.updateLabel(state, dispatcher, logger)
	logger.Info("handleNewGame: New game started for %s.", state.Owner)
}

func (mh *matchHandler) handleToggleBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.BotEnabled = !state.BotEnabled
	state.BotWaitUntilMs = 0
	logger.Debug("handleToggleBot: Bot enabled=%t", state.BotEnabled)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleCycleAlgorithm(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.Search.Algorithm = state.Search.Algorithm.Next()
	state.Session.Algorithm = string(state.Search.Algorithm)
	logger.Debug("handleCycleAlgorithm: Algorithm is now %s", state.Search.Algorithm)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleTogglePause(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if !state.BotEnabled {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 409, "pause only applies while the bot is playing")
		return
	}
	state.BotPaused = !state.BotPaused
	state.BotWaitUntilMs = 0
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleConfigureBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	request, err := decodeStruct(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	data, err := structJSON(request)
	if err != nil {
		logger.Error("handleConfigureBot: Failed to encode payload: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 500, "internal error")
		return
	}
	cfg, err := bot.ParseSearchConfig(data, state.Search)
	if err != nil {
		logger.Debug("handleConfigureBot: Rejected config from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	state.Search = cfg
	state.Session.Algorithm = string(cfg.Algorithm)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastSnapshot(state, dispatcher, logger)
}

func (mh *matchHandler) handleToggleHeuristic(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	request, err := decodeStruct(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	cfg, err := state.Search.ToggleHeuristic(stringField(request, "heuristic"))
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	state.Search = cfg
	mh.broadcastSnapshot(state, dispatcher, logger)
}

// finishGame records the finished game once and returns the fields added to
// the game over payload.
func (mh *matchHandler) finishGame(ctx context.Context, state *MatchState, logger runtime.Logger, p app.GameOverPayload) map[string]interface{} {
	fields := map[string]interface{}{
		"score":     p.Score,
		"max_tile":  p.MaxTile,
		"moves":     p.Moves,
		"bot_moves": p.BotMoves,
		"won":       p.Won,
	}
	if state.Recorded || state.Owner == "" {
		return fields
	}
	state.Recorded = true

	if state.Results != nil {
		rec := results.GameRecord{
			UserID:    state.Owner,
			Username:  state.OwnerName,
			Score:     p.Score,
			MaxTile:   p.MaxTile,
			Moves:     p.Moves,
			BotMoves:  p.BotMoves,
			Algorithm: state.Session.Algorithm,
		}
		if profile, ok := bot.GetProfile(state.Profile); ok && state.Profile != "" {
			rec.ProfileUserID = profile.UserID
			rec.ProfileUsername = profile.Username
		}
		result, err := state.Results.RecordGame(ctx, rec)
		if result.LeaderboardErr != nil {
			logger.Warn("finishGame: Failed to write leaderboard record for %s: %v", result.RankedUserID, result.LeaderboardErr)
		}
		if err != nil {
			logger.Error("finishGame: Failed to record game for %s: %v", state.Owner, err)
		}
		fields["reward"] = result.Reward
		if err == nil && result.BalanceErr == nil {
			fields["balance"] = result.Balance
		} else if result.BalanceErr != nil {
			logger.Warn("finishGame: Failed to read coin balance of %s: %v", state.Owner, result.BalanceErr)
		}
	}

	if state.Signer != nil {
		token, err := state.Signer.Sign(app.ScoreClaims{
			UserID:    state.Owner,
			Score:     p.Score,
			MaxTile:   p.MaxTile,
			Moves:     p.Moves,
			BotMoves:  p.BotMoves,
			Algorithm: state.Session.Algorithm,
		})
		if err != nil {
			logger.Error("finishGame: Failed to sign score token: %v", err)
		} else {
			fields["token"] = token
		}
	}
	logger.Info("finishGame: Game over for %s, score %d, max tile %d.", state.Owner, p.Score, p.MaxTile)
	return fields
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var fields map[string]interface{}

	switch ev.Kind {
	case app.EventGameStarted:
		mh.broadcastSnapshot(state, dispatcher, logger)
		return
	case app.EventMoveApplied:
		opCode = OpMoveApplied
		fields = moveAppliedFields(ev.Payload.(app.MoveAppliedPayload), state)
	case app.EventBotDecision:
		opCode = OpBotDecision
		fields = botDecisionFields(ev.Payload.(app.BotDecisionPayload))
	case app.EventGameOver:
		opCode = OpGameOver
		fields = mh.finishGame(ctx, state, logger, ev.Payload.(app.GameOverPayload))
		mh.updateLabel(state, dispatcher, logger)
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := encodeStruct(fields)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

func (mh *matchHandler) broadcastSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	fields, err := snapshotFields(state)
	if err != nil {
		logger.Error("broadcastSnapshot: Failed to build snapshot: %v", err)
		return
	}
	bytes, err := encodeStruct(fields)
	if err != nil {
		logger.Error("broadcastSnapshot: Failed to marshal snapshot: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpStateSnapshot, bytes, nil, nil, true)
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := encodeStruct(map[string]interface{}{
		"code":    code,
		"message": message,
	})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := labelString(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
