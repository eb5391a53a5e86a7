package internal

import (
	"context"
	"math"

	"game2048/internal/domain"
)

const noNode = -1

// MCTS is a Monte Carlo tree search over player moves. Tile spawns are not
// tree nodes; rollouts simulate them.
type MCTS struct {
	Iterations   int
	Exploration  float64
	RolloutDepth int
	Rng          domain.Rand
	// Eval scores rollout end states. EvaluateBoard when nil.
	Eval func(domain.Board) float64
}

// MCTSStats summarises one search.
type MCTSStats struct {
	Iterations int
	Nodes      int
	RootVisits int
	// ChildVisits is indexed by Direction; unexpanded moves stay 0.
	ChildVisits [4]int
}

// MCTSResult is the decision of one search.
type MCTSResult struct {
	Direction domain.Direction
	Fallback  bool
	Stats     MCTSStats
}

// mctsNode lives in the tree arena. Parent and children are arena indices.
type mctsNode struct {
	board    domain.Board
	parent   int
	move     domain.Direction
	children [4]int
	untried  []domain.Direction
	visits   int
	scoreSum float64
	terminal bool
}

type mctsTree struct {
	nodes []mctsNode
	cfg   MCTS
	eval  func(domain.Board) float64
}

func (t *mctsTree) add(b domain.Board, parent int, move domain.Direction) int {
	t.nodes = append(t.nodes, mctsNode{
		board:    b,
		parent:   parent,
		move:     move,
		children: [4]int{noNode, noNode, noNode, noNode},
		untried:  domain.ValidMoves(b),
		terminal: domain.IsTerminal(b),
	})
	return len(t.nodes) - 1
}

func (t *mctsTree) hasChildren(n int) bool {
	for _, c := range t.nodes[n].children {
		if c != noNode {
			return true
		}
	}
	return false
}

// ucb1 is +Inf for unvisited nodes and the plain mean at the root.
func (t *mctsTree) ucb1(n int) float64 {
	node := &t.nodes[n]
	if node.visits == 0 {
		return math.Inf(1)
	}
	mean := node.scoreSum / float64(node.visits)
	if node.parent == noNode || t.nodes[node.parent].visits == 0 {
		return mean
	}
	parentVisits := float64(t.nodes[node.parent].visits)
	return mean + t.cfg.Exploration*math.Sqrt(math.Log(parentVisits)/float64(node.visits))
}

// selectChild picks the child with the highest UCB1 in Up, Down, Left, Right
// order. It returns noNode when no child beats -Inf.
func (t *mctsTree) selectChild(n int) int {
	best := noNode
	bestScore := math.Inf(-1)
	for _, c := range t.nodes[n].children {
		if c == noNode {
			continue
		}
		if s := t.ucb1(c); s > bestScore {
			bestScore = s
			best = c
		}
	}
	return best
}

// expand pops the last untried move of n into a new child holding the
// pre-spawn board.
func (t *mctsTree) expand(n int) int {
	untried := t.nodes[n].untried
	move := untried[len(untried)-1]
	t.nodes[n].untried = untried[:len(untried)-1]
	res := domain.ApplyMove(t.nodes[n].board, move)
	child := t.add(res.Board, n, move)
	t.nodes[n].children[move] = child
	return child
}

// rollout plays random moves from b, spawning a tile before each one.
func (t *mctsTree) rollout(b domain.Board) float64 {
	score := 0.0
	for depth := 0; depth < t.cfg.RolloutDepth; depth++ {
		if b.CountEmpty() == 0 {
			break
		}
		b = domain.SpawnRandomTile(b, t.cfg.Rng)
		if domain.IsTerminal(b) {
			break
		}
		moves := domain.ValidMoves(b)
		if len(moves) == 0 {
			break
		}
		res := domain.ApplyMove(b, moves[t.cfg.Rng.Intn(len(moves))])
		b = res.Board
		score += float64(res.ScoreDelta)
	}
	return score + t.eval(b)
}

func (t *mctsTree) backpropagate(n int, value float64) {
	for ; n != noNode; n = t.nodes[n].parent {
		t.nodes[n].visits++
		t.nodes[n].scoreSum += value
	}
}

// Search runs the configured number of iterations from b and picks the most
// visited root move. It reports false only when b is terminal. A cancelled ctx
// ends the iteration loop early; the decision is made from the tree so far.
func (m MCTS) Search(ctx context.Context, b domain.Board) (MCTSResult, bool) {
	t := &mctsTree{cfg: m, eval: m.Eval}
	if t.eval == nil {
		t.eval = EvaluateBoard
	}
	t.nodes = make([]mctsNode, 0, m.Iterations+1)
	root := t.add(b, noNode, 0)
	if t.nodes[root].terminal {
		return MCTSResult{}, false
	}

	iterations := 0
	for ; iterations < m.Iterations; iterations++ {
		if ctx.Err() != nil {
			break
		}
		n := root
		for len(t.nodes[n].untried) == 0 && t.hasChildren(n) && !t.nodes[n].terminal {
			next := t.selectChild(n)
			if next == noNode {
				n = root
				break
			}
			n = next
		}
		if len(t.nodes[n].untried) > 0 && !t.nodes[n].terminal {
			n = t.expand(n)
		}
		t.backpropagate(n, t.rollout(t.nodes[n].board))
	}

	stats := MCTSStats{Iterations: iterations, Nodes: len(t.nodes), RootVisits: t.nodes[root].visits}
	result := MCTSResult{}
	maxVisits := -1
	for _, d := range domain.ValidMoves(b) {
		c := t.nodes[root].children[d]
		if c == noNode {
			continue
		}
		stats.ChildVisits[d] = t.nodes[c].visits
		if t.nodes[c].visits > maxVisits {
			maxVisits = t.nodes[c].visits
			result.Direction = d
		}
	}
	if maxVisits < 0 {
		moves := domain.ValidMoves(b)
		result.Direction = moves[m.Rng.Intn(len(moves))]
		result.Fallback = true
	}
	result.Stats = stats
	return result, true
}
