package roster

import (
	"context"
	"fmt"

	"game2048/internal/bot"
	"game2048/internal/ports"
)

const deviceIDPrefix = "game2048-bot-"

// Result captures per-profile provisioning outcomes.
type Result struct {
	Ready []string
	// Failed maps a profile id to the error that kept it from getting an account.
	Failed map[string]error
	// ProfileUpdateErrs are non-fatal: the account exists but its profile is stale.
	ProfileUpdateErrs map[string]error
}

// Service gives every bot profile a user account so bot games can be ranked.
type Service struct {
	accounts ports.AccountPort
}

// NewService constructs a roster service. accounts must be non-nil.
func NewService(accounts ports.AccountPort) *Service {
	return &Service{accounts: accounts}
}

// DeviceID returns the device id a profile authenticates with.
func DeviceID(p bot.Profile) string {
	if p.DeviceID != "" {
		return p.DeviceID
	}
	return deviceIDPrefix + p.ID
}

// Provision ensures an account for each profile and records the user id in
// the bot profile registry. It keeps going when one profile fails.
func (s *Service) Provision(ctx context.Context, profiles []bot.Profile) (Result, error) {
	if s.accounts == nil {
		return Result{}, fmt.Errorf("roster service not configured")
	}
	result := Result{
		Failed:            make(map[string]error),
		ProfileUpdateErrs: make(map[string]error),
	}
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		username := p.Username
		if username == "" {
			username = "bot_" + p.ID
		}
		userID, actual, _, err := s.accounts.EnsureDeviceAccount(ctx, DeviceID(p), username)
		if err != nil {
			result.Failed[p.ID] = err
			continue
		}
		metadata := map[string]interface{}{
			"is_bot":    true,
			"profile":   p.ID,
			"algorithm": string(p.Config.Algorithm),
		}
		if err := s.accounts.UpdateProfile(ctx, userID, actual, p.DisplayName, metadata); err != nil {
			result.ProfileUpdateErrs[p.ID] = err
		}
		bot.SetProfileUserID(p.ID, userID, actual)
		result.Ready = append(result.Ready, p.ID)
	}
	if len(result.Ready) == 0 && len(result.Failed) > 0 {
		return result, fmt.Errorf("no bot profile could be provisioned (%d failed)", len(result.Failed))
	}
	return result, nil
}
