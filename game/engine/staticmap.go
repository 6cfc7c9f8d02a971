package engine

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is returned when a map or a state does not fit together:
// ragged rows, positions out of bounds, entities on walls or overlapping.
var ErrMalformedInput = errors.New("malformed input")

// StaticMap is the immutable terrain of a level. Hero and boxes are never
// part of it.
type StaticMap struct {
	width   int
	height  int
	tiles   [][]Tile
	targets []Position
}

// NewStaticMap copies rows into a new map. Every row must have the same
// width and no transient (box/hero) codes may remain.
func NewStaticMap(rows [][]Tile) (*StaticMap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrMalformedInput)
	}

	width := len(rows[0])
	tiles := make([][]Tile, len(rows))
	var targets []Position
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrMalformedInput, y, len(row), width)
		}
		tiles[y] = make([]Tile, width)
		for x, tile := range row {
			switch tile.Code {
			case Box, BoxOnTarget, Hero, HeroOnTarget:
				return nil, fmt.Errorf("%w: dynamic tile %s at (%d,%d)", ErrMalformedInput, tile.Code, x, y)
			case Spring, Treadmill:
				if !tile.Orientation.IsMovement() {
					return nil, fmt.Errorf("%w: %s at (%d,%d) has no orientation", ErrMalformedInput, tile.Code, x, y)
				}
			case Target:
				targets = append(targets, Position{X: x, Y: y})
			}
			tiles[y][x] = tile
		}
	}

	return &StaticMap{
		width:   width,
		height:  len(rows),
		tiles:   tiles,
		targets: targets,
	}, nil
}

// Width returns the number of columns
func (m *StaticMap) Width() int { return m.width }

// Height returns the number of rows
func (m *StaticMap) Height() int { return m.height }

// InBounds reports whether p is inside the grid
func (m *StaticMap) InBounds(p Position) bool {
	return p.X >= 0 && p.X < m.width && p.Y >= 0 && p.Y < m.height
}

// TileAt returns the tile at p. Anything outside the grid reads as a wall.
func (m *StaticMap) TileAt(p Position) Tile {
	if !m.InBounds(p) {
		return Tile{Code: Wall}
	}
	return m.tiles[p.Y][p.X]
}

// CodeAt is a shorthand for TileAt(p).Code
func (m *StaticMap) CodeAt(p Position) TileCode {
	return m.TileAt(p).Code
}

// IsWall reports whether p is a wall cell
func (m *StaticMap) IsWall(p Position) bool {
	return m.CodeAt(p) == Wall
}

// Blocked reports whether nothing can ever stand on p. Empty space lies
// outside the playable area and blocks like a wall.
func (m *StaticMap) Blocked(p Position) bool {
	code := m.CodeAt(p)
	return code == Wall || code == Empty
}

// IsTarget reports whether p is a target cell
func (m *StaticMap) IsTarget(p Position) bool {
	return m.CodeAt(p) == Target
}

// Targets returns a copy of the target positions in row-major order
func (m *StaticMap) Targets() []Position {
	out := make([]Position, len(m.targets))
	copy(out, m.targets)
	return out
}

// Count returns how many cells carry the given code
func (m *StaticMap) Count(code TileCode) int {
	count := 0
	for _, row := range m.tiles {
		for _, tile := range row {
			if tile.Code == code {
				count++
			}
		}
	}
	return count
}

// Validate checks that a dynamic state fits on this map
func (m *StaticMap) Validate(state DynamicState) error {
	if !m.InBounds(state.Hero) {
		return fmt.Errorf("%w: hero at (%d,%d) is out of bounds", ErrMalformedInput, state.Hero.X, state.Hero.Y)
	}
	if m.Blocked(state.Hero) {
		return fmt.Errorf("%w: hero at (%d,%d) is on a blocked cell", ErrMalformedInput, state.Hero.X, state.Hero.Y)
	}

	seen := make(map[Position]bool, len(state.Boxes))
	for i, b := range state.Boxes {
		if !m.InBounds(b) {
			return fmt.Errorf("%w: box %d at (%d,%d) is out of bounds", ErrMalformedInput, i, b.X, b.Y)
		}
		if m.Blocked(b) {
			return fmt.Errorf("%w: box %d at (%d,%d) is on a blocked cell", ErrMalformedInput, i, b.X, b.Y)
		}
		if b == state.Hero {
			return fmt.Errorf("%w: box %d shares a cell with the hero", ErrMalformedInput, i)
		}
		if seen[b] {
			return fmt.Errorf("%w: two boxes at (%d,%d)", ErrMalformedInput, b.X, b.Y)
		}
		seen[b] = true
	}
	return nil
}

// Solved reports whether every box rests on a target
func (m *StaticMap) Solved(boxes []Position) bool {
	for _, b := range boxes {
		if !m.IsTarget(b) {
			return false
		}
	}
	return true
}

// Render draws the map with the given dynamic state using the layout legend
func (m *StaticMap) Render(state DynamicState) []string {
	grid := make([][]byte, m.height)
	for y := range grid {
		grid[y] = make([]byte, m.width)
		for x := range grid[y] {
			grid[y][x] = tileChar(m.tiles[y][x].Code)
		}
	}

	for _, b := range state.Boxes {
		if !m.InBounds(b) {
			continue
		}
		if m.IsTarget(b) {
			grid[b.Y][b.X] = '*'
		} else {
			grid[b.Y][b.X] = '$'
		}
	}
	if m.InBounds(state.Hero) {
		if m.IsTarget(state.Hero) {
			grid[state.Hero.Y][state.Hero.X] = '+'
		} else {
			grid[state.Hero.Y][state.Hero.X] = '@'
		}
	}

	rows := make([]string, m.height)
	for y, row := range grid {
		rows[y] = string(row)
	}
	return rows
}
