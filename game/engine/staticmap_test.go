package engine

import (
	"errors"
	"reflect"
	"testing"
)

// mustLevel builds a level from a bare layout or fails the test
func mustLevel(t *testing.T, layout []string, orientations map[string]string) *Level {
	t.Helper()
	level, err := BuildLevel(&LevelConfig{
		Name:         "test",
		Description:  "test level",
		Layout:       layout,
		Orientations: orientations,
	})
	if err != nil {
		t.Fatalf("BuildLevel failed: %v", err)
	}
	return level
}

func TestNewStaticMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]Tile
	}{
		{"empty grid", nil},
		{"ragged rows", [][]Tile{{{Code: Wall}, {Code: Wall}}, {{Code: Wall}}}},
		{"transient code", [][]Tile{{{Code: Box}}}},
		{"spring without orientation", [][]Tile{{{Code: Spring}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStaticMap(tt.rows)
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("NewStaticMap() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestStaticMap_Queries(t *testing.T) {
	level := mustLevel(t, []string{
		"#####",
		"#@$.#",
		"#####",
	}, nil)
	m := level.Map

	if m.Width() != 5 || m.Height() != 3 {
		t.Fatalf("size = %dx%d, want 5x3", m.Width(), m.Height())
	}
	if !m.IsWall(Position{X: -1, Y: 0}) {
		t.Error("cells outside the grid should read as walls")
	}
	if m.CodeAt(Position{X: 1, Y: 1}) != Floor {
		t.Errorf("hero cell should be floor, got %s", m.CodeAt(Position{X: 1, Y: 1}))
	}
	if !m.IsTarget(Position{X: 3, Y: 1}) {
		t.Error("expected target at 3,1")
	}
	if got := m.Targets(); len(got) != 1 || got[0] != (Position{X: 3, Y: 1}) {
		t.Errorf("Targets() = %v", got)
	}
	if m.Count(Wall) != 12 {
		t.Errorf("Count(Wall) = %d, want 12", m.Count(Wall))
	}

	// Targets returns a copy
	m.Targets()[0] = Position{}
	if !m.IsTarget(Position{X: 3, Y: 1}) {
		t.Error("mutating Targets() result changed the map")
	}
}

func TestStaticMap_Validate(t *testing.T) {
	level := mustLevel(t, []string{
		"######",
		"#@$ .#",
		"#    #",
		"######",
	}, nil)

	tests := []struct {
		name  string
		state DynamicState
		ok    bool
	}{
		{"start", level.Start, true},
		{"hero out of bounds", DynamicState{Hero: Position{X: 9, Y: 9}, Boxes: []Position{{X: 2, Y: 1}}}, false},
		{"hero in wall", DynamicState{Hero: Position{X: 0, Y: 0}, Boxes: []Position{{X: 2, Y: 1}}}, false},
		{"box in wall", DynamicState{Hero: Position{X: 1, Y: 1}, Boxes: []Position{{X: 5, Y: 1}}}, false},
		{"box on hero", DynamicState{Hero: Position{X: 1, Y: 1}, Boxes: []Position{{X: 1, Y: 1}}}, false},
		{"duplicate boxes", DynamicState{Hero: Position{X: 1, Y: 1}, Boxes: []Position{{X: 2, Y: 2}, {X: 2, Y: 2}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := level.Map.Validate(tt.state)
			if tt.ok && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformedInput) {
				t.Errorf("Validate() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestStaticMap_RenderAndSolved(t *testing.T) {
	layout := []string{
		"#######",
		"#+$ *_#",
		"#######",
	}
	level := mustLevel(t, layout, nil)

	got := level.Map.Render(level.Start)
	if !reflect.DeepEqual(got, layout) {
		t.Errorf("Render() = %q, want %q", got, layout)
	}

	if level.Map.Solved(level.Start.Boxes) {
		t.Error("level should not be solved with a box off target")
	}
	if !level.Map.Solved([]Position{{X: 1, Y: 1}, {X: 4, Y: 1}}) {
		t.Error("level should be solved with every box on a target")
	}
}
