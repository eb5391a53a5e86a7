package ports

import "context"

// ScoreRecord is one finished game submitted to a leaderboard.
type ScoreRecord struct {
	LeaderboardID string
	UserID        string
	Username      string
	Score         int64
	// Subscore breaks ties; the largest tile reached.
	Subscore int64
	Metadata map[string]interface{}
}

// LeaderboardPort records finished games.
type LeaderboardPort interface {
	// EnsureLeaderboard creates the leaderboard when it does not exist yet.
	EnsureLeaderboard(ctx context.Context, leaderboardID string) error

	// WriteScore submits a record. Only a user's best score is kept.
	WriteScore(ctx context.Context, record ScoreRecord) error
}
