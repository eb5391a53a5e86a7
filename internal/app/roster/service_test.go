package roster

import (
	"context"
	"errors"
	"testing"

	"game2048/internal/bot"
)

type fakeAccounts struct {
	failDevice string
	updateErr  error
	updates    map[string]map[string]interface{}
}

func (f *fakeAccounts) EnsureDeviceAccount(ctx context.Context, deviceID, username string) (string, string, bool, error) {
	if deviceID == f.failDevice {
		return "", "", false, errors.New("auth failed")
	}
	return "uid-" + deviceID, username, true, nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, userID, username, displayName string, metadata map[string]interface{}) error {
	if f.updates == nil {
		f.updates = make(map[string]map[string]interface{})
	}
	f.updates[userID] = metadata
	return f.updateErr
}

func TestProvision_RecordsUserIDs(t *testing.T) {
	bot.SetProfiles(bot.DefaultProfiles())
	t.Cleanup(func() { bot.SetProfiles(bot.DefaultProfiles()) })

	accounts := &fakeAccounts{failDevice: "game2048-bot-dice"}
	result, err := NewService(accounts).Provision(context.Background(), bot.DefaultProfiles())
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if _, failed := result.Failed["dice"]; !failed {
		t.Fatalf("Expected dice to fail, got %+v", result)
	}
	if len(result.Ready) != len(bot.DefaultProfiles())-1 {
		t.Fatalf("Ready = %v", result.Ready)
	}

	p, _ := bot.GetProfile("explorer")
	if p.UserID != "uid-game2048-bot-explorer" || !bot.IsBotUser(p.UserID) {
		t.Fatalf("explorer profile = %+v", p)
	}
	if accounts.updates[p.UserID]["is_bot"] != true || accounts.updates[p.UserID]["algorithm"] != "mcts" {
		t.Fatalf("metadata = %+v", accounts.updates[p.UserID])
	}
}

func TestProvision_ProfileUpdateFailureIsNotFatal(t *testing.T) {
	bot.SetProfiles(bot.DefaultProfiles())
	t.Cleanup(func() { bot.SetProfiles(bot.DefaultProfiles()) })

	profiles := bot.DefaultProfiles()[:1]
	result, err := NewService(&fakeAccounts{updateErr: errors.New("update failed")}).Provision(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if result.ProfileUpdateErrs[profiles[0].ID] == nil || len(result.Ready) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestProvision_AllFailed(t *testing.T) {
	profiles := []bot.Profile{{ID: "solo", DisplayName: "Solo", Config: bot.DefaultSearchConfig()}}
	_, err := NewService(&fakeAccounts{failDevice: "game2048-bot-solo"}).Provision(context.Background(), profiles)
	if err == nil {
		t.Fatal("Expected error when no profile could be provisioned")
	}
}

func TestDeviceID(t *testing.T) {
	if got := DeviceID(bot.Profile{ID: "x"}); got != "game2048-bot-x" {
		t.Fatalf("DeviceID = %s", got)
	}
	if got := DeviceID(bot.Profile{ID: "x", DeviceID: "custom"}); got != "custom" {
		t.Fatalf("DeviceID = %s", got)
	}
}
