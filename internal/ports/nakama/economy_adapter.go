package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"game2048/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// WalletEconomy keeps game coins in the Nakama account wallet.
type WalletEconomy struct {
	nk runtime.NakamaModule
}

func NewWalletEconomy(nk runtime.NakamaModule) *WalletEconomy {
	return &WalletEconomy{nk: nk}
}

// Balance reads the coin entry of the account wallet. Accounts that never
// received coins have an empty wallet and a zero balance.
func (w *WalletEconomy) Balance(ctx context.Context, userID string) (int64, error) {
	account, err := w.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	if account.Wallet == "" {
		return 0, nil
	}
	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.Wallet), &wallet); err != nil {
		return 0, fmt.Errorf("failed to decode wallet of %s: %w", userID, err)
	}
	return wallet[ports.CoinsCurrency], nil
}

// Pay sends every positive reward in a single WalletsUpdate call.
func (w *WalletEconomy) Pay(ctx context.Context, rewards []ports.Reward) (map[string]int64, error) {
	updates := make([]*runtime.WalletUpdate, 0, len(rewards))
	for _, r := range rewards {
		if r.Coins < 0 {
			return nil, fmt.Errorf("negative reward of %d coins for %s", r.Coins, r.UserID)
		}
		if r.Coins == 0 {
			continue
		}
		updates = append(updates, &runtime.WalletUpdate{
			UserID:    r.UserID,
			Changeset: map[string]int64{ports.CoinsCurrency: r.Coins},
			Metadata:  r.Metadata,
		})
	}
	balances := make(map[string]int64, len(updates))
	if len(updates) == 0 {
		return balances, nil
	}

	results, err := w.nk.WalletsUpdate(ctx, updates, true)
	if err != nil {
		return nil, fmt.Errorf("failed to pay %d rewards: %w", len(updates), err)
	}
	for _, res := range results {
		balances[res.UserID] = res.Updated[ports.CoinsCurrency]
	}
	return balances, nil
}

var _ ports.EconomyPort = (*WalletEconomy)(nil)
