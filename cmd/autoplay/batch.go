package main

import (
	"context"
	"math/rand"
	"time"

	"game2048/internal/bot"
	"game2048/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Batch describes a run of independent games.
type Batch struct {
	Config   bot.SearchConfig
	Games    int
	Parallel int
	Seed     int64
	MaxMoves int
}

// Summary is printed as JSON when a batch ends. Per game slices are indexed
// by game number.
type Summary struct {
	Algorithm bot.Algorithm `json:"algorithm"`
	Seed      int64         `json:"seed"`
	Games     int           `json:"games"`
	Scores    []int         `json:"scores"`
	MaxTiles  []int         `json:"max_tiles"`
	Moves     []int         `json:"moves"`
	Fallbacks int           `json:"fallbacks"`
	Wins      int           `json:"wins"`
	Mean      float64       `json:"mean"`
	Best      int           `json:"best"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// Run plays every game of b. Game i uses its own source seeded with
// b.Seed+i, so results do not depend on scheduling.
func Run(ctx context.Context, b Batch, log zerolog.Logger) (Summary, error) {
	start := time.Now()
	s := Summary{
		Algorithm: b.Config.Algorithm,
		Seed:      b.Seed,
		Games:     b.Games,
		Scores:    make([]int, b.Games),
		MaxTiles:  make([]int, b.Games),
		Moves:     make([]int, b.Games),
	}
	fallbacks := make([]int, b.Games)

	g, ctx := errgroup.WithContext(ctx)
	if b.Parallel > 0 {
		g.SetLimit(b.Parallel)
	}
	profile := bot.Profile{ID: "autoplay", DisplayName: "Autoplay", Config: b.Config}
	for i := 0; i < b.Games; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(b.Seed + int64(i)))
			agent := bot.NewAgent(profile, bot.NewController(rng))
			final, stats := agent.PlayGame(ctx, domain.NewGame(rng), rng, b.MaxMoves)

			// Each goroutine owns index i.
			s.Scores[i] = final.Score
			s.MaxTiles[i] = final.MaxTile()
			s.Moves[i] = stats.Moves
			fallbacks[i] = stats.Fallbacks

			log.Debug().
				Int("game", i).
				Int("score", final.Score).
				Int("max_tile", final.MaxTile()).
				Int("moves", stats.Moves).
				Dur("thinking", stats.Thinking).
				Msg("game finished")
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return s, err
	}

	total := 0
	for i := range s.Scores {
		total += s.Scores[i]
		s.Fallbacks += fallbacks[i]
		if s.Scores[i] > s.Best {
			s.Best = s.Scores[i]
		}
		if s.MaxTiles[i] >= domain.WinningTile {
			s.Wins++
		}
	}
	if b.Games > 0 {
		s.Mean = float64(total) / float64(b.Games)
	}
	s.ElapsedMs = time.Since(start).Milliseconds()
	return s, nil
}
