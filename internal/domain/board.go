package domain

import (
	"errors"
	"fmt"
	"strings"
)

// GridSize is the side length of the square board.
const GridSize = 4

// Board is a GridSize x GridSize grid of tiles. 0 is an empty cell, every other
// value is a power of two. Boards are arrays so assignment copies them.
type Board [GridSize][GridSize]int

// Direction is one of the four slide directions.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in the fixed scan order used for tie breaking.
var Directions = [...]Direction{Up, Down, Left, Right}

var ErrUnknownDirection = errors.New("unknown direction")

var directionNames = [...]string{"up", "down", "left", "right"}

// Valid reports whether d is one of Up, Down, Left, Right.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the lower-case direction names, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Cell is a board coordinate.
type Cell struct {
	Row int
	Col int
}

// EmptyCells returns the empty cells in row-major order.
func (b Board) EmptyCells() []Cell {
	cells := make([]Cell, 0, GridSize*GridSize)
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if b[r][c] == 0 {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// CountEmpty returns the number of empty cells.
func (b Board) CountEmpty() int {
	n := 0
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if b[r][c] == 0 {
				n++
			}
		}
	}
	return n
}

// MaxTile returns the largest tile value, 0 for an empty board.
func (b Board) MaxTile() int {
	best := 0
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if b[r][c] > best {
				best = b[r][c]
			}
		}
	}
	return best
}

// TileSum returns the sum of all tiles.
func (b Board) TileSum() int {
	sum := 0
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			sum += b[r][c]
		}
	}
	return sum
}

// Rows returns the board as nested slices, the shape used by JSON payloads.
func (b Board) Rows() [][]int {
	rows := make([][]int, GridSize)
	for r := 0; r < GridSize; r++ {
		rows[r] = append([]int(nil), b[r][:]...)
	}
	return rows
}

// BoardFromRows builds a board from nested slices. Rows and columns must both be
// GridSize long and every tile must be 0 or a power of two.
func BoardFromRows(rows [][]int) (Board, error) {
	var b Board
	if len(rows) != GridSize {
		return b, fmt.Errorf("board must have %d rows, got %d", GridSize, len(rows))
	}
	for r, row := range rows {
		if len(row) != GridSize {
			return b, fmt.Errorf("row %d must have %d cells, got %d", r, GridSize, len(row))
		}
		for c, v := range row {
			if v < 0 || (v != 0 && v&(v-1) != 0) || v == 1 {
				return b, fmt.Errorf("cell (%d,%d): %d is not a tile value", r, c, v)
			}
			b[r][c] = v
		}
	}
	return b, nil
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if b[r][c] == 0 {
				sb.WriteString(fmt.Sprintf("%5s", "."))
			} else {
				sb.WriteString(fmt.Sprintf("%5d", b[r][c]))
			}
		}
		if r < GridSize-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
