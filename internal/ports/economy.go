package ports

import "context"

// CoinsCurrency is the wallet key rewards are paid in.
const CoinsCurrency = "coins"

// Reward is a coin credit for one finished game.
type Reward struct {
	UserID   string
	Coins    int64
	Metadata map[string]interface{}
}

// EconomyPort reads and credits coin wallets.
type EconomyPort interface {
	// Balance returns the user's coin balance.
	Balance(ctx context.Context, userID string) (int64, error)

	// Pay credits every reward in one ledgered batch and returns the coin
	// balance of each credited user afterwards.
	Pay(ctx context.Context, rewards []Reward) (map[string]int64, error)
}
