package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Layout legend
const (
	WallChar         = '#'
	FloorChar        = ' '
	TargetChar       = '.'
	EmptyChar        = '_'
	BoxChar          = '$'
	BoxOnTargetChar  = '*'
	HeroChar         = '@'
	HeroOnTargetChar = '+'
	SpringChar       = 'S'
	TreadmillChar    = 'T'
	OilyChar         = 'O'
)

var legend = map[rune]TileCode{
	WallChar:         Wall,
	FloorChar:        Floor,
	TargetChar:       Target,
	EmptyChar:        Empty,
	BoxChar:          Box,
	BoxOnTargetChar:  BoxOnTarget,
	HeroChar:         Hero,
	HeroOnTargetChar: HeroOnTarget,
	SpringChar:       Spring,
	TreadmillChar:    Treadmill,
	OilyChar:         Oily,
}

func tileChar(code TileCode) byte {
	switch code {
	case Wall:
		return WallChar
	case Target:
		return TargetChar
	case Empty:
		return EmptyChar
	case Spring:
		return SpringChar
	case Treadmill:
		return TreadmillChar
	case Oily:
		return OilyChar
	}
	return FloorChar
}

var configValidator = validator.New()

// Level is a parsed level: the static map plus the starting entities
type Level struct {
	Config *LevelConfig
	Map    *StaticMap
	Start  DynamicState
}

// ValidateLevelConfig validates a level configuration for correctness
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if err := configValidator.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config validation: %s failed on '%s'", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return fmt.Errorf("config validation: %v", err)
	}

	if _, err := BuildLevel(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// BuildLevel strips hero and boxes out of the layout into a separate state
// and binds orientations to directional features.
func BuildLevel(config *LevelConfig) (*Level, error) {
	if len(config.Layout) < MinGridSize || len(config.Layout) > MaxGridSize {
		return nil, fmt.Errorf("%w: layout must have between %d and %d rows, got %d",
			ErrMalformedInput, MinGridSize, MaxGridSize, len(config.Layout))
	}

	width := 0
	for _, row := range config.Layout {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}
	if width < MinGridSize || width > MaxGridSize {
		return nil, fmt.Errorf("%w: layout must have between %d and %d columns, got %d",
			ErrMalformedInput, MinGridSize, MaxGridSize, width)
	}

	orientations, err := parseOrientations(config.Orientations)
	if err != nil {
		return nil, err
	}

	var (
		heroes []Position
		start  DynamicState
	)
	rows := make([][]Tile, len(config.Layout))
	for y, line := range config.Layout {
		rows[y] = make([]Tile, width)
		runes := []rune(line)
		for x := 0; x < width; x++ {
			// Short rows are padded with empty space
			ch := rune(EmptyChar)
			if x < len(runes) {
				ch = runes[x]
			}
			code, ok := legend[ch]
			if !ok {
				return nil, fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrMalformedInput, ch, y+1, x+1)
			}

			pos := Position{X: x, Y: y}
			switch code {
			case Hero:
				heroes = append(heroes, pos)
				code = Floor
			case HeroOnTarget:
				heroes = append(heroes, pos)
				code = Target
			case Box:
				start.Boxes = append(start.Boxes, pos)
				code = Floor
			case BoxOnTarget:
				start.Boxes = append(start.Boxes, pos)
				code = Target
			}

			tile := Tile{Code: code}
			if code == Spring || code == Treadmill {
				o, ok := orientations[pos]
				if !ok {
					return nil, fmt.Errorf("%w: %s at (%d,%d) needs an orientation", ErrMalformedInput, code, x, y)
				}
				tile.Orientation = o
			}
			rows[y][x] = tile
		}
	}

	if len(heroes) != 1 {
		return nil, fmt.Errorf("%w: layout must contain exactly one hero, got %d", ErrMalformedInput, len(heroes))
	}
	start.Hero = heroes[0]

	if len(start.Boxes) == 0 {
		return nil, fmt.Errorf("%w: layout must contain at least one box", ErrMalformedInput)
	}
	if len(start.Boxes) > MaxBoxes {
		return nil, fmt.Errorf("%w: layout has %d boxes, at most %d allowed", ErrMalformedInput, len(start.Boxes), MaxBoxes)
	}

	m, err := NewStaticMap(rows)
	if err != nil {
		return nil, err
	}
	if len(m.Targets()) < len(start.Boxes) {
		return nil, fmt.Errorf("%w: %d boxes but only %d targets", ErrMalformedInput, len(start.Boxes), len(m.Targets()))
	}
	if err := m.Validate(start); err != nil {
		return nil, err
	}

	return &Level{Config: config, Map: m, Start: start}, nil
}

// parseOrientations reads the "x,y" -> direction table
func parseOrientations(raw map[string]string) (map[Position]Direction, error) {
	out := make(map[Position]Direction, len(raw))
	for key, value := range raw {
		parts := strings.Split(key, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: orientation key %q must be \"x,y\"", ErrMalformedInput, key)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: orientation key %q must be \"x,y\"", ErrMalformedInput, key)
		}
		d, err := ParseDirection(value)
		if err != nil || !d.IsMovement() {
			return nil, fmt.Errorf("%w: orientation at %q must be up, down, left or right", ErrMalformedInput, key)
		}
		out[Position{X: x, Y: y}] = d
	}
	return out, nil
}

// DecodeLevelConfig parses JSON or YAML depending on the file extension
func DecodeLevelConfig(filename string, data []byte) (*LevelConfig, error) {
	var config LevelConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// LoadLevelConfig loads and validates a level file
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeLevelConfig(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse level file '%s': %w", filename, err)
	}

	if err := ValidateLevelConfig(config); err != nil {
		return nil, fmt.Errorf("invalid level '%s': %w", filename, err)
	}

	return config, nil
}

// DefaultLevelConfig is used when no level files are available
func DefaultLevelConfig() *LevelConfig {
	config := &LevelConfig{
		Name:        "default",
		Description: "Two boxes, two targets and a spring",
		Layout: []string{
			"#########",
			"#  .    #",
			"# $ #S  #",
			"# @ $  .#",
			"#########",
		},
		Orientations: map[string]string{"5,2": "down"},
	}
	config.Messages = DefaultMessages()
	return config
}

// DefaultMessages fills texts a level file left out
func DefaultMessages() LevelMessages {
	return LevelMessages{
		Welcome:  "Push every box onto a target.",
		Solved:   "Solved in %d moves!",
		CantMove: "Can't move there!",
		Pushed:   "Box pushed.",
		Moved:    "Boxes on target: %d/%d",
	}
}

// Durations converts the millisecond settings. Zero values mean "use the
// solver default".
func (s *SolverSettings) Durations() (yieldPause, maxDuration time.Duration) {
	if s == nil {
		return 0, 0
	}
	return time.Duration(s.YieldPauseMs) * time.Millisecond, time.Duration(s.MaxDurationMs) * time.Millisecond
}
