package domain

const (
	// FourProbability is the chance a spawned tile is a 4 instead of a 2.
	FourProbability = 0.1
	// StartingTiles is how many tiles a fresh game begins with.
	StartingTiles = 2
	// WinningTile is the tile that marks a won game. Play may continue past it.
	WinningTile = 2048
)
