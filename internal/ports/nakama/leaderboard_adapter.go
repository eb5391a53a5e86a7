package nakama

import (
	"context"
	"fmt"

	"game2048/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaLeaderboardAdapter implements ports.LeaderboardPort with Nakama leaderboards.
type NakamaLeaderboardAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaLeaderboardAdapter creates a new leaderboard adapter.
func NewNakamaLeaderboardAdapter(nk runtime.NakamaModule) *NakamaLeaderboardAdapter {
	return &NakamaLeaderboardAdapter{nk: nk}
}

// EnsureLeaderboard creates an authoritative, descending, best-score
// leaderboard that never resets. Creating an existing leaderboard is a no-op in Nakama.
func (a *NakamaLeaderboardAdapter) EnsureLeaderboard(ctx context.Context, leaderboardID string) error {
	metadata := map[string]interface{}{"game": "2048"}
	if err := a.nk.LeaderboardCreate(ctx, leaderboardID, true, "desc", "best", "", metadata, true); err != nil {
		return fmt.Errorf("failed to create leaderboard %s: %w", leaderboardID, err)
	}
	return nil
}

// WriteScore submits a record for the record's owner.
func (a *NakamaLeaderboardAdapter) WriteScore(ctx context.Context, record ports.ScoreRecord) error {
	_, err := a.nk.LeaderboardRecordWrite(ctx, record.LeaderboardID, record.UserID, record.Username, record.Score, record.Subscore, record.Metadata, nil)
	if err != nil {
		return fmt.Errorf("failed to write leaderboard record for user %s: %w", record.UserID, err)
	}
	return nil
}

var _ ports.LeaderboardPort = (*NakamaLeaderboardAdapter)(nil)
