package domain

import (
	"fmt"
	"strings"
)

const (
	// TokenUnvisited is the display token of a cell the turtle never reached.
	TokenUnvisited = ". "
	// TokenVisited is the display token of a cell the turtle has marked.
	TokenVisited = "X "
)

// Grid is a fixed-size character canvas indexed [row][col].
// Its dimensions never change after construction.
type Grid struct {
	width  int
	height int
	cells  [][]string
}

// NewGrid allocates a height x width canvas with every cell unvisited.
func NewGrid(width, height int) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}

	cells := make([][]string, height)
	for row := range cells {
		cells[row] = make([]string, width)
		for col := range cells[row] {
			cells[row][col] = TokenUnvisited
		}
	}

	return &Grid{
		width:  width,
		height: height,
		cells:  cells,
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Contains reports whether (row, col) addresses a cell of the grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

// Mark flips the cell at (row, col) to the visited token.
func (g *Grid) Mark(row, col int) error {
	if !g.Contains(row, col) {
		return g.outOfBounds(row, col)
	}
	g.cells[row][col] = TokenVisited
	return nil
}

// CellAt returns the token currently held by (row, col).
func (g *Grid) CellAt(row, col int) (string, error) {
	if !g.Contains(row, col) {
		return "", g.outOfBounds(row, col)
	}
	return g.cells[row][col], nil
}

// Render returns the canvas as text: one line per row, top to bottom,
// each line the concatenation of its cell tokens. There is no trailing newline.
func (g *Grid) Render() string {
	var b strings.Builder
	b.Grow(g.height * (g.width*len(TokenUnvisited) + 1))
	for row, cells := range g.cells {
		if row > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range cells {
			b.WriteString(cell)
		}
	}
	return b.String()
}

// Marked returns the visited cells in row-major order.
// X is the column and Y the row.
func (g *Grid) Marked() []Position {
	var marks []Position
	for row, cells := range g.cells {
		for col, cell := range cells {
			if cell == TokenVisited {
				marks = append(marks, Position{X: col, Y: row})
			}
		}
	}
	return marks
}

func (g *Grid) outOfBounds(row, col int) error {
	return fmt.Errorf("%w: row=%d col=%d grid=%dx%d", ErrOutOfBounds, row, col, g.width, g.height)
}
