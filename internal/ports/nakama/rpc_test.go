package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"game2048/internal/app"
	"game2048/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeNakama overrides the NakamaModule calls used by the RPCs and adapters.
type fakeNakama struct {
	runtime.NakamaModule

	matchModule string
	matchParams map[string]interface{}
	matchErr    error

	leaderboards []string
	records      []ports.ScoreRecord
	wallet       map[string]map[string]int64
	walletCalls  int
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	f.matchModule = module
	f.matchParams = params
	if f.matchErr != nil {
		return "", f.matchErr
	}
	return "match-1.nakama", nil
}

func (f *fakeNakama) LeaderboardCreate(ctx context.Context, id string, authoritative bool, sortOrder, operator, resetSchedule string, metadata map[string]interface{}, enableRanks bool) error {
	if !authoritative || sortOrder != "desc" || operator != "best" {
		return errors.New("unexpected leaderboard settings")
	}
	f.leaderboards = append(f.leaderboards, id)
	return nil
}

func (f *fakeNakama) LeaderboardRecordWrite(ctx context.Context, id, ownerID, username string, score, subscore int64, metadata map[string]interface{}, overrideOperator *int) (*api.LeaderboardRecord, error) {
	f.records = append(f.records, ports.ScoreRecord{LeaderboardID: id, UserID: ownerID, Username: username, Score: score, Subscore: subscore, Metadata: metadata})
	return &api.LeaderboardRecord{LeaderboardId: id, OwnerId: ownerID}, nil
}

func (f *fakeNakama) WalletsUpdate(ctx context.Context, updates []*runtime.WalletUpdate, updateLedger bool) ([]*runtime.WalletUpdateResult, error) {
	if !updateLedger {
		return nil, errors.New("rewards must be ledgered")
	}
	if f.wallet == nil {
		f.wallet = make(map[string]map[string]int64)
	}
	f.walletCalls++
	out := make([]*runtime.WalletUpdateResult, 0, len(updates))
	for _, u := range updates {
		if f.wallet[u.UserID] == nil {
			f.wallet[u.UserID] = make(map[string]int64)
		}
		previous := make(map[string]int64)
		for k, v := range f.wallet[u.UserID] {
			previous[k] = v
		}
		for k, v := range u.Changeset {
			f.wallet[u.UserID][k] += v
		}
		updated := make(map[string]int64)
		for k, v := range f.wallet[u.UserID] {
			updated[k] = v
		}
		out = append(out, &runtime.WalletUpdateResult{UserID: u.UserID, Updated: updated, Previous: previous})
	}
	return out, nil
}

func (f *fakeNakama) AccountGetId(ctx context.Context, userID string) (*api.Account, error) {
	if f.wallet[userID] == nil {
		return &api.Account{}, nil
	}
	data, err := json.Marshal(f.wallet[userID])
	if err != nil {
		return nil, err
	}
	return &api.Account{Wallet: string(data)}, nil
}

func userCtx(env map[string]string) context.Context {
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user-1")
	if env != nil {
		ctx = context.WithValue(ctx, runtime.RUNTIME_CTX_ENV, env)
	}
	return ctx
}

func TestRpcCreateGame(t *testing.T) {
	nk := &fakeNakama{}
	out, err := rpcCreateGame(userCtx(nil), noopLogger{}, nil, nk, `{"profile":"explorer","bot":true,"seed":42}`)
	if err != nil {
		t.Fatalf("rpcCreateGame: %v", err)
	}

	var resp CreateGameResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil || resp.MatchID != "match-1.nakama" {
		t.Fatalf("response = %s (%v)", out, err)
	}
	if nk.matchModule != MatchName2048 {
		t.Fatalf("module = %s", nk.matchModule)
	}
	if nk.matchParams["profile"] != "explorer" || nk.matchParams["bot"] != true || nk.matchParams["seed"] != float64(42) {
		t.Fatalf("params = %v", nk.matchParams)
	}
}

func TestRpcCreateGame_EmptyPayload(t *testing.T) {
	nk := &fakeNakama{}
	if _, err := rpcCreateGame(userCtx(nil), noopLogger{}, nil, nk, ""); err != nil {
		t.Fatalf("rpcCreateGame: %v", err)
	}
	if _, ok := nk.matchParams["seed"]; ok {
		t.Fatalf("seed should be omitted: %v", nk.matchParams)
	}
}

func TestRpcCreateGame_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		nk      *fakeNakama
	}{
		{name: "bad json", payload: `{`, nk: &fakeNakama{}},
		{name: "unknown profile", payload: `{"profile":"nobody"}`, nk: &fakeNakama{}},
		{name: "unknown algorithm", payload: `{"algorithm":"minimax"}`, nk: &fakeNakama{}},
		{name: "match create fails", payload: `{}`, nk: &fakeNakama{matchErr: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := rpcCreateGame(userCtx(nil), noopLogger{}, nil, tt.nk, tt.payload); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRpcBotProfiles(t *testing.T) {
	out, err := rpcBotProfiles(userCtx(nil), noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatalf("rpcBotProfiles: %v", err)
	}
	var views []BotProfileView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(views) == 0 {
		t.Fatalf("no profiles listed")
	}
	for _, v := range views {
		if v.ID == "" || v.Algorithm != v.Config.Algorithm {
			t.Fatalf("bad view: %+v", v)
		}
	}
}

func TestRpcVerifyScore(t *testing.T) {
	signer := app.NewScoreSigner("s3cret", ScoreTokenIssuer, time.Hour)
	token, err := signer.Sign(app.ScoreClaims{UserID: "user-1", Score: 2048, MaxTile: 256, Moves: 300, Algorithm: "expectimax"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	env := map[string]string{EnvScoreSecret: "s3cret"}

	out, err := rpcVerifyScore(userCtx(env), noopLogger{}, nil, nil, `{"token":"`+token+`"}`)
	if err != nil {
		t.Fatalf("rpcVerifyScore: %v", err)
	}
	var resp VerifyScoreResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Valid || resp.UserID != "user-1" || resp.Score != 2048 || resp.Algorithm != "expectimax" {
		t.Fatalf("response = %+v", resp)
	}

	out, err = rpcVerifyScore(userCtx(map[string]string{EnvScoreSecret: "other"}), noopLogger{}, nil, nil, `{"token":"`+token+`"}`)
	if err != nil {
		t.Fatalf("rpcVerifyScore: %v", err)
	}
	resp = VerifyScoreResponse{}
	if err := json.Unmarshal([]byte(out), &resp); err != nil || resp.Valid || resp.Reason == "" {
		t.Fatalf("forged token accepted: %s", out)
	}
}

func TestRpcVerifyScore_Errors(t *testing.T) {
	if _, err := rpcVerifyScore(userCtx(map[string]string{EnvScoreSecret: "x"}), noopLogger{}, nil, nil, `{}`); err == nil {
		t.Fatalf("missing token accepted")
	}
	if _, err := rpcVerifyScore(userCtx(nil), noopLogger{}, nil, nil, `{"token":"abc"}`); err == nil {
		t.Fatalf("verification without a secret should fail")
	}
}

func TestAdapters(t *testing.T) {
	nk := &fakeNakama{}
	ctx := context.Background()

	leaderboard := NewNakamaLeaderboardAdapter(nk)
	if err := leaderboard.EnsureLeaderboard(ctx, "high_scores"); err != nil {
		t.Fatalf("EnsureLeaderboard: %v", err)
	}
	if err := leaderboard.WriteScore(ctx, ports.ScoreRecord{LeaderboardID: "high_scores", UserID: "u1", Username: "ann", Score: 512, Subscore: 64}); err != nil {
		t.Fatalf("WriteScore: %v", err)
	}
	if len(nk.leaderboards) != 1 || len(nk.records) != 1 || nk.records[0].Subscore != 64 {
		t.Fatalf("leaderboards=%v records=%+v", nk.leaderboards, nk.records)
	}

	economy := NewWalletEconomy(nk)
	if balance, err := economy.Balance(ctx, "u1"); err != nil || balance != 0 {
		t.Fatalf("empty wallet balance = %d, err = %v", balance, err)
	}
	balances, err := economy.Pay(ctx, []ports.Reward{
		{UserID: "u1", Coins: 5},
		{UserID: "u2", Coins: 0},
		{UserID: "u1", Coins: 3},
	})
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if nk.walletCalls != 1 || balances["u1"] != 8 {
		t.Fatalf("calls = %d, balances = %v", nk.walletCalls, balances)
	}
	if _, ok := balances["u2"]; ok {
		t.Fatalf("zero reward was sent: %v", balances)
	}
	balance, err := economy.Balance(ctx, "u1")
	if err != nil || balance != 8 {
		t.Fatalf("balance = %d, err = %v", balance, err)
	}
	if _, err := economy.Pay(ctx, []ports.Reward{{UserID: "u1", Coins: -1}}); err == nil {
		t.Fatalf("negative reward accepted")
	}
}
