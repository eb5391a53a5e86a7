package domain

// Rand is the random source used for spawning tiles and by the bots.
// *rand.Rand from math/rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// SpawnRandomTile places a tile on a uniformly chosen empty cell: a 4 with
// probability FourProbability, otherwise a 2. A full board is returned unchanged.
func SpawnRandomTile(b Board, rng Rand) Board {
	cells := b.EmptyCells()
	if len(cells) == 0 {
		return b
	}
	cell := cells[rng.Intn(len(cells))]
	b[cell.Row][cell.Col] = spawnValue(rng)
	return b
}

func spawnValue(rng Rand) int {
	if rng.Float64() < FourProbability {
		return 4
	}
	return 2
}

// SpawnOutcome is one possible tile placement with its probability, as seen
// from the chance ply of a search.
type SpawnOutcome struct {
	Cell        Cell
	Value       int
	Probability float64
}

// SpawnOutcomes enumerates every placement SpawnRandomTile can produce.
// Probabilities sum to 1 when the board has an empty cell.
func SpawnOutcomes(b Board) []SpawnOutcome {
	cells := b.EmptyCells()
	if len(cells) == 0 {
		return nil
	}
	perCell := 1.0 / float64(len(cells))
	out := make([]SpawnOutcome, 0, 2*len(cells))
	for _, c := range cells {
		out = append(out,
			SpawnOutcome{Cell: c, Value: 2, Probability: perCell * (1 - FourProbability)},
			SpawnOutcome{Cell: c, Value: 4, Probability: perCell * FourProbability},
		)
	}
	return out
}
