package main

import (
	"context"
	"flag"
	"io"
	"testing"

	"game2048/internal/bot"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Deterministic(t *testing.T) {
	b := Batch{
		Config:   bot.DefaultSearchConfig().WithAlgorithm(bot.AlgorithmGreedy),
		Games:    4,
		Parallel: 2,
		Seed:     99,
	}
	first, err := Run(context.Background(), b, zerolog.Nop())
	require.NoError(t, err)

	b.Parallel = 4
	second, err := Run(context.Background(), b, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.MaxTiles, second.MaxTiles)
	assert.Equal(t, first.Moves, second.Moves)

	best := 0
	total := 0
	for i, s := range first.Scores {
		assert.Positive(t, first.Moves[i])
		total += s
		if s > best {
			best = s
		}
	}
	assert.Equal(t, best, first.Best)
	assert.InDelta(t, float64(total)/4, first.Mean, 1e-9)
	assert.Zero(t, first.Fallbacks)
}

func TestRun_MaxMoves(t *testing.T) {
	s, err := Run(context.Background(), Batch{
		Config:   bot.DefaultSearchConfig(),
		Games:    3,
		Seed:     1,
		MaxMoves: 7,
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []int{7, 7, 7}, s.Moves)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Batch{Config: bot.DefaultSearchConfig(), Games: 2, Seed: 1}, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("autoplay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags(newFlagSet(), []string{"-algorithm", "mcts", "-iterations", "64", "-games", "2"})
	require.NoError(t, err)

	cfg, err := o.searchConfig()
	require.NoError(t, err)
	assert.Equal(t, bot.AlgorithmMCTS, cfg.Algorithm)
	assert.Equal(t, 64, cfg.MCTSIterations)
	// Flags left at their defaults do not override the configured values.
	assert.Equal(t, bot.DefaultExpectimaxDepth, cfg.ExpectimaxDepth)
	assert.Equal(t, 2, o.games)
}

func TestParseFlags_Invalid(t *testing.T) {
	_, err := parseFlags(newFlagSet(), []string{"-games", "-1"})
	assert.Error(t, err)

	o, err := parseFlags(newFlagSet(), []string{"-algorithm", "minimax"})
	require.NoError(t, err)
	_, err = o.searchConfig()
	assert.ErrorIs(t, err, bot.ErrUnknownAlgorithm)

	o, err = parseFlags(newFlagSet(), []string{"-depth", "9"})
	require.NoError(t, err)
	_, err = o.searchConfig()
	assert.ErrorIs(t, err, bot.ErrInvalidConfig)
}
