package nakama

import (
	"context"
	"fmt"

	"game2048/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaAccountAdapter implements ports.AccountPort using Nakama's account API.
type NakamaAccountAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaAccountAdapter creates a new account adapter.
func NewNakamaAccountAdapter(nk runtime.NakamaModule) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// EnsureDeviceAccount authenticates deviceID, creating the account when missing.
func (a *NakamaAccountAdapter) EnsureDeviceAccount(ctx context.Context, deviceID, username string) (string, string, bool, error) {
	userID, actual, created, err := a.nk.AuthenticateDevice(ctx, deviceID, username, true)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to authenticate device %s: %w", deviceID, err)
	}
	return userID, actual, created, nil
}

// UpdateProfile updates the account username, display name and metadata in Nakama.
// Returns an error if the Nakama update fails.
func (a *NakamaAccountAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string, metadata map[string]interface{}) error {
	return a.nk.AccountUpdateId(ctx, userID, username, metadata, displayName, "", "", "", "")
}

var _ ports.AccountPort = (*NakamaAccountAdapter)(nil)
