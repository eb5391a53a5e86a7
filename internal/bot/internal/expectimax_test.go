package internal

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game2048/internal/domain"
)

func tileSum(b domain.Board) float64 { return float64(b.TileSum()) }

func TestExpectimaxChanceNodeAverage(t *testing.T) {
	e := Expectimax{Eval: tileSum}
	b := domain.Board{{2, 4}}
	// Every cell yields 0.9*(6+2) + 0.1*(6+4); averaging over cells keeps 8.2.
	assert.InDelta(t, 8.2, e.Value(b, 1, false), 1e-9)
}

func TestExpectimaxMaxNode(t *testing.T) {
	e := Expectimax{Eval: tileSum}
	b := domain.Board{{2, 2}}
	// Left and Right merge for 4 on top of the unchanged tile sum of 4.
	assert.InDelta(t, 8.0, e.Value(b, 1, true), 1e-9)
}

func TestExpectimaxLeafAndTerminal(t *testing.T) {
	b := domain.Board{{2}}
	assert.Equal(t, EvaluateBoard(b), Expectimax{}.Value(b, 0, true))

	terminal := domain.Board{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	assert.True(t, math.IsInf(Expectimax{}.Value(terminal, 3, true), -1))

	_, ok := Expectimax{Depth: 2}.ChooseMove(context.Background(), terminal)
	assert.False(t, ok)
}

func TestExpectimaxPrefersMergeWithTieOrder(t *testing.T) {
	e := Expectimax{Depth: 1, Eval: tileSum}
	res, ok := e.ChooseMove(context.Background(), domain.Board{{2, 2}})
	require.True(t, ok)
	// Down scores 6.2, Left and Right both 10.2; Left is scanned first.
	assert.Equal(t, domain.Left, res.Direction)
	assert.InDelta(t, 10.2, res.Value, 1e-9)
	assert.Greater(t, res.Nodes, 0)
}

func TestExpectimaxForcedLossStillMoves(t *testing.T) {
	b := domain.Board{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 0},
	}
	valid := domain.ValidMoves(b)
	require.NotEmpty(t, valid)

	for depth := 1; depth <= 3; depth++ {
		res, ok := Expectimax{Depth: depth}.ChooseMove(context.Background(), b)
		require.True(t, ok, "depth %d", depth)
		assert.Contains(t, valid, res.Direction)
		assert.False(t, math.IsInf(res.Value, 0), "depth %d value %v", depth, res.Value)
	}
}

func TestExpectimaxMaxNodeFallsBackWhenEveryMoveLoses(t *testing.T) {
	calls := 0
	e := Expectimax{Eval: func(b domain.Board) float64 {
		calls++
		if domain.IsTerminal(b) || b.CountEmpty() == 0 {
			return math.Inf(-1)
		}
		return 42
	}}
	// One empty cell: every move's chance child is full, so each branch is -Inf.
	b := domain.Board{
		{2, 4, 8, 16},
		{32, 64, 128, 256},
		{512, 1024, 2048, 4096},
		{8192, 16384, 32768, 0},
	}
	assert.Equal(t, 42.0, e.Value(b, 2, true))
	assert.Greater(t, calls, 0)
}

func TestExpectimaxCancelledKeepsFirstMove(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := domain.Board{{2, 2}, {4}}
	res, ok := Expectimax{Depth: 2}.ChooseMove(ctx, b)
	require.True(t, ok)
	assert.Equal(t, domain.ValidMoves(b)[0], res.Direction)
}

func TestExpectimaxDeadlineCutsDeepSearch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	b := domain.Board{{2, 0, 0, 2}, {0, 4, 0, 0}, {}, {8}}

	start := time.Now()
	res, ok := Expectimax{Depth: 6}.ChooseMove(ctx, b)
	require.True(t, ok)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.Truncated)
	assert.Contains(t, domain.ValidMoves(b), res.Direction)
	assert.False(t, math.IsInf(res.Value, 0))
}

func TestExpectimaxUntruncatedWithoutDeadline(t *testing.T) {
	res, ok := Expectimax{Depth: 2}.ChooseMove(context.Background(), domain.Board{{2, 2}, {4}})
	require.True(t, ok)
	assert.False(t, res.Truncated)
}
