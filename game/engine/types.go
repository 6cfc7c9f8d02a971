package engine

import (
	"fmt"
	"strings"
)

// TileCode represents the static terrain of a grid cell
type TileCode int

const (
	Wall TileCode = iota
	Floor
	Target
	Empty
	Spring
	Treadmill
	Oily

	// Transient codes, only seen while a layout is being parsed
	Box
	BoxOnTarget
	Hero
	HeroOnTarget
)

const (
	MinGridSize         = 3
	MaxGridSize         = 64
	MaxBoxes            = 32
	MaxBulkMoves        = 500
	UnreachableDistance = 999999
	WebSocketBufferSize = 256
)

var tileNames = map[TileCode]string{
	Wall:         "wall",
	Floor:        "floor",
	Target:       "target",
	Empty:        "empty",
	Spring:       "spring",
	Treadmill:    "treadmill",
	Oily:         "oily",
	Box:          "box",
	BoxOnTarget:  "box_on_target",
	Hero:         "hero",
	HeroOnTarget: "hero_on_target",
}

func (t TileCode) String() string {
	if name, ok := tileNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tile(%d)", int(t))
}

// MarshalText encodes the tile code by name
func (t TileCode) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tile code name
func (t *TileCode) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for code, n := range tileNames {
		if n == name {
			*t = code
			return nil
		}
	}
	return fmt.Errorf("unknown tile code %q", text)
}

// Tile is a single static cell. Orientation only matters for directional
// features (spring, treadmill).
type Tile struct {
	Code        TileCode  `json:"code"`
	Orientation Direction `json:"orientation,omitempty"`
}

// DynamicState is the only per-step mutable data: the hero and the boxes,
// box identity by index.
type DynamicState struct {
	Hero  Position   `json:"hero"`
	Boxes []Position `json:"boxes"`
}

// Clone returns an independent copy of the state
func (s DynamicState) Clone() DynamicState {
	boxes := make([]Position, len(s.Boxes))
	copy(boxes, s.Boxes)
	return DynamicState{Hero: s.Hero, Boxes: boxes}
}

// Movement describes what happened to one entity during a single update
type Movement struct {
	Previous  Position  `json:"previous"`
	Current   Position  `json:"current"`
	Direction Direction `json:"direction"`
	OnTarget  bool      `json:"on_target"`
}

// Moved reports whether the entity ended somewhere else than it started
func (m Movement) Moved() bool {
	return m.Previous != m.Current
}

// MovementRecord is produced fresh by every coordinator update
type MovementRecord struct {
	Hero  Movement   `json:"hero"`
	Boxes []Movement `json:"boxes"`
}

// State rebuilds the dynamic state the record ends in
func (r MovementRecord) State() DynamicState {
	boxes := make([]Position, len(r.Boxes))
	for i, b := range r.Boxes {
		boxes[i] = b.Current
	}
	return DynamicState{Hero: r.Hero.Current, Boxes: boxes}
}

// LevelConfig is a level as stored on disk (JSON or YAML)
type LevelConfig struct {
	Name         string            `json:"name" yaml:"name" validate:"required,max=64"`
	Description  string            `json:"description" yaml:"description" validate:"required"`
	Layout       []string          `json:"layout" yaml:"layout" validate:"required,min=3,max=64"`
	Orientations map[string]string `json:"orientations,omitempty" yaml:"orientations,omitempty"`
	Solver       *SolverSettings   `json:"solver,omitempty" yaml:"solver,omitempty"`
	Messages     LevelMessages     `json:"messages" yaml:"messages"`
}

// SolverSettings are optional per-level overrides for the solver budget
type SolverSettings struct {
	YieldEvery    int   `json:"yield_every,omitempty" yaml:"yield_every,omitempty" validate:"gte=0"`
	YieldPauseMs  int64 `json:"yield_pause_ms,omitempty" yaml:"yield_pause_ms,omitempty" validate:"gte=0"`
	MaxIterations int   `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" validate:"gte=0"`
	MaxDurationMs int64 `json:"max_duration_ms,omitempty" yaml:"max_duration_ms,omitempty" validate:"gte=0"`
	MaxStates     int   `json:"max_states,omitempty" yaml:"max_states,omitempty" validate:"gte=0"`
}

// LevelMessages are the player-facing texts of a level
type LevelMessages struct {
	Welcome  string `json:"welcome" yaml:"welcome"`
	Solved   string `json:"solved" yaml:"solved"`
	CantMove string `json:"cant_move" yaml:"cant_move"`
	Pushed   string `json:"pushed" yaml:"pushed"`
	Moved    string `json:"moved" yaml:"moved"`
}

// GameState represents the complete state of a played level
type GameState struct {
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Board       []string           `json:"board"`
	Hero        Position           `json:"hero"`
	Boxes       []Position         `json:"boxes"`
	BoxesPlaced int                `json:"boxes_placed"`
	TotalBoxes  int                `json:"total_boxes"`
	Pushes      int                `json:"pushes"`
	Message     string             `json:"message"`
	Solved      bool               `json:"solved"`
	ConfigName  string             `json:"config_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	LastMovement *MovementRecord `json:"last_movement,omitempty"`
}

// Dynamic returns the hero and boxes of the game state
func (gs *GameState) Dynamic() DynamicState {
	return DynamicState{Hero: gs.Hero, Boxes: gs.Boxes}.Clone()
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action       Direction `json:"action"`
	FromPosition Position  `json:"from_position"`
	ToPosition   Position  `json:"to_position"`
	Pushed       bool      `json:"pushed"`
	Timestamp    int64     `json:"timestamp"`
	Success      bool      `json:"success"`
	MoveNumber   int       `json:"move_number"`
}
