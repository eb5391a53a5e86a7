package internal

import (
	"math"

	"game2048/internal/domain"
)

const gridSize = domain.GridSize

// SmallTileThreshold is the default bound below which a tile counts as small.
const SmallTileThreshold = 8

// EvalWeights are the fixed weights of EvaluateBoard.
type EvalWeights struct {
	Empty        float64
	Corner       float64
	Monotonicity float64
	Smoothness   float64
	MaxTile      float64
}

// DefaultEvalWeights is the board evaluation shared by the heuristic,
// expectimax and mcts bots.
var DefaultEvalWeights = EvalWeights{
	Empty:        2.7,
	Corner:       3.0,
	Monotonicity: 1.0,
	Smoothness:   0.1,
	MaxTile:      1.0,
}

// EvaluateBoard scores a board with DefaultEvalWeights. Terminal boards score -Inf.
func EvaluateBoard(b domain.Board) float64 {
	return DefaultEvalWeights.Evaluate(b)
}

// Evaluate scores b with w. Terminal boards score -Inf.
func (w EvalWeights) Evaluate(b domain.Board) float64 {
	if domain.IsTerminal(b) {
		return math.Inf(-1)
	}
	score := w.Empty * EvalEmpty(b)
	score += w.Corner * EvalMaxTileCorner(b)
	score += w.Monotonicity * EvalMonotonicity(b)
	score += w.Smoothness * EvalSmoothness(b)
	score += w.MaxTile * log2(b.MaxTile())
	return score
}

// EvalEmpty counts empty cells.
func EvalEmpty(b domain.Board) float64 {
	return float64(b.CountEmpty())
}

// maxTilePos returns the first cell holding the strict maximum in row-major order.
func maxTilePos(b domain.Board) (domain.Cell, int) {
	best := 0
	pos := domain.Cell{Row: -1, Col: -1}
	for r := 0; r < gridSize; r++ {
		for c := 0; c < gridSize; c++ {
			if b[r][c] > best {
				best = b[r][c]
				pos = domain.Cell{Row: r, Col: c}
			}
		}
	}
	return pos, best
}

var corners = [4]domain.Cell{
	{Row: 0, Col: 0},
	{Row: 0, Col: gridSize - 1},
	{Row: gridSize - 1, Col: 0},
	{Row: gridSize - 1, Col: gridSize - 1},
}

// EvalMaxTileCorner rewards the largest tile for sitting in, or close to, a corner.
func EvalMaxTileCorner(b domain.Board) float64 {
	pos, value := maxTilePos(b)
	if value == 0 {
		return 0
	}
	minDist := 2 * gridSize
	for _, corner := range corners {
		dist := abs(corner.Row-pos.Row) + abs(corner.Col-pos.Col)
		if dist < minDist {
			minDist = dist
		}
	}
	if minDist == 0 {
		return float64(value * gridSize)
	}
	return float64(value) * float64(2*gridSize-1-minDist) * 0.5
}

// EvalMonotonicity measures how sorted rows and columns are. Each axis keeps
// the better of its two orientations; 0 means perfectly monotonic.
func EvalMonotonicity(b domain.Board) float64 {
	var up, down, left, right float64
	for i := 0; i < gridSize; i++ {
		dec, inc := lineMonotonicity(func(j int) int { return b[i][j] })
		left += dec
		right += inc
		dec, inc = lineMonotonicity(func(j int) int { return b[j][i] })
		up += dec
		down += inc
	}
	return math.Max(up, down) + math.Max(left, right)
}

// lineMonotonicity walks a line comparing each tile with the next non-empty
// one. The walk starts at index 0 even when that cell is empty.
func lineMonotonicity(at func(int) int) (dec, inc float64) {
	current, next := 0, 1
	for next < gridSize {
		for next < gridSize && at(next) == 0 {
			next++
		}
		if next >= gridSize {
			break
		}
		cur, nxt := log2(at(current)), log2(at(next))
		if cur > nxt {
			dec += nxt - cur
		} else if nxt > cur {
			inc += cur - nxt
		}
		current = next
		next++
	}
	return dec, inc
}

// EvalSmoothness subtracts the log2 gap between every tile and its nearest
// non-empty neighbour to the right and below.
func EvalSmoothness(b domain.Board) float64 {
	smoothness := 0.0
	for r := 0; r < gridSize; r++ {
		for c := 0; c < gridSize; c++ {
			if b[r][c] == 0 {
				continue
			}
			v := log2(b[r][c])
			for nc := c + 1; nc < gridSize; nc++ {
				if b[r][nc] != 0 {
					smoothness -= math.Abs(v - log2(b[r][nc]))
					break
				}
			}
			for nr := r + 1; nr < gridSize; nr++ {
				if b[nr][c] != 0 {
					smoothness -= math.Abs(v - log2(b[nr][c]))
					break
				}
			}
		}
	}
	return smoothness
}

// CountSmallTiles counts tiles strictly between 0 and threshold.
func CountSmallTiles(b domain.Board, threshold int) int {
	n := 0
	for r := 0; r < gridSize; r++ {
		for c := 0; c < gridSize; c++ {
			if b[r][c] > 0 && b[r][c] < threshold {
				n++
			}
		}
	}
	return n
}

// EvalRemoveSmall penalises every small tile by one.
func EvalRemoveSmall(b domain.Board, threshold int) float64 {
	return -float64(CountSmallTiles(b, threshold))
}

// log2 returns 0 for empty cells.
func log2(v int) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log2(float64(v))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
