package engine

import (
	"fmt"
	"strings"
)

// Position represents x,y coordinates. Y grows downwards.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Offset returns the neighbouring position in direction d
func (p Position) Offset(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Equal reports whether both positions are the same cell
func (p Position) Equal(o Position) bool {
	return p == o
}

// Adjacent reports whether o is one orthogonal step away from p
func (p Position) Adjacent(o Position) bool {
	return ManhattanDistance(p, o) == 1
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Direction is one of the four movement directions. Stand is the
// pseudo-action for "no movement attempted" and the zero value.
type Direction int

const (
	Stand Direction = iota
	Up
	Down
	Left
	Right
)

// Directions lists the real directions in expansion order
var Directions = []Direction{Up, Down, Left, Right}

var directionNames = [...]string{"stand", "up", "down", "left", "right"}

func (d Direction) String() string {
	if d < Stand || d > Right {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// Delta returns the x,y step of the direction
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction. Stand is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return Stand
}

// Clockwise rotates a quarter turn: up, right, down, left
func (d Direction) Clockwise() Direction {
	switch d {
	case Up:
		return Right
	case Right:
		return Down
	case Down:
		return Left
	case Left:
		return Up
	}
	return Stand
}

// CounterClockwise rotates a quarter turn the other way
func (d Direction) CounterClockwise() Direction {
	return d.Clockwise().Opposite()
}

// IsMovement is false for Stand and anything out of range
func (d Direction) IsMovement() bool {
	return d >= Up && d <= Right
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection accepts the direction names plus the single-letter forms
// u, d, l, r and s.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "stand", "s", "":
		return Stand, nil
	}
	return Stand, fmt.Errorf("invalid direction %q", s)
}

// FormatActions renders an action list in compact LURD notation
func FormatActions(actions []Direction) string {
	var b strings.Builder
	for _, a := range actions {
		switch a {
		case Up:
			b.WriteByte('u')
		case Down:
			b.WriteByte('d')
		case Left:
			b.WriteByte('l')
		case Right:
			b.WriteByte('r')
		}
	}
	return b.String()
}
