package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *LevelConfig {
	return &LevelConfig{
		Name:        "corridor",
		Description: "One box, one target",
		Layout: []string{
			"#######",
			"#     #",
			"#@ $ .#",
			"#     #",
			"#######",
		},
	}
}

func TestValidateLevelConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*LevelConfig)
		wantErr string
	}{
		{"valid", func(*LevelConfig) {}, ""},
		{"missing name", func(c *LevelConfig) { c.Name = "" }, "name failed on 'required'"},
		{"missing description", func(c *LevelConfig) { c.Description = "" }, "description failed on 'required'"},
		{"too few rows", func(c *LevelConfig) { c.Layout = c.Layout[:2] }, "layout"},
		{"no hero", func(c *LevelConfig) { c.Layout[2] = "#  $ .#" }, "exactly one hero"},
		{"two heroes", func(c *LevelConfig) { c.Layout[1] = "#@    #" }, "exactly one hero"},
		{"no box", func(c *LevelConfig) { c.Layout[2] = "#@   .#" }, "at least one box"},
		{"more boxes than targets", func(c *LevelConfig) { c.Layout[1] = "#  $  #" }, "only 1 targets"},
		{"invalid character", func(c *LevelConfig) { c.Layout[3] = "#  X  #" }, "invalid character 'X'"},
		{"spring without orientation", func(c *LevelConfig) { c.Layout[3] = "#  S  #" }, "needs an orientation"},
		{
			name: "bad orientation key",
			modify: func(c *LevelConfig) {
				c.Layout[3] = "#  S  #"
				c.Orientations = map[string]string{"3;3": "up"}
			},
			wantErr: "must be \"x,y\"",
		},
		{
			name: "bad orientation value",
			modify: func(c *LevelConfig) {
				c.Layout[3] = "#  S  #"
				c.Orientations = map[string]string{"3,3": "stand"}
			},
			wantErr: "must be up, down, left or right",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(config)

			err := ValidateLevelConfig(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestBuildLevel(t *testing.T) {
	config := &LevelConfig{
		Name:        "features",
		Description: "Every tile kind",
		Layout: []string{
			"########",
			"#+$ S  #",
			"# *T O #",
			"#   .$.#",
			"#####",
		},
		Orientations: map[string]string{"4,1": "down", "3,2": "left"},
	}

	level, err := BuildLevel(config)
	if err != nil {
		t.Fatalf("BuildLevel failed: %v", err)
	}

	if level.Start.Hero != (Position{X: 1, Y: 1}) {
		t.Errorf("hero = %s, want 1,1", level.Start.Hero)
	}
	wantBoxes := []Position{{X: 2, Y: 1}, {X: 2, Y: 2}, {X: 5, Y: 3}}
	if len(level.Start.Boxes) != len(wantBoxes) {
		t.Fatalf("boxes = %v, want %v", level.Start.Boxes, wantBoxes)
	}
	for i, b := range wantBoxes {
		if level.Start.Boxes[i] != b {
			t.Errorf("box %d = %s, want %s", i, level.Start.Boxes[i], b)
		}
	}

	m := level.Map
	checks := []struct {
		pos  Position
		tile Tile
	}{
		{Position{X: 1, Y: 1}, Tile{Code: Target}},
		{Position{X: 2, Y: 1}, Tile{Code: Floor}},
		{Position{X: 2, Y: 2}, Tile{Code: Target}},
		{Position{X: 4, Y: 1}, Tile{Code: Spring, Orientation: Down}},
		{Position{X: 3, Y: 2}, Tile{Code: Treadmill, Orientation: Left}},
		{Position{X: 5, Y: 2}, Tile{Code: Oily}},
		{Position{X: 6, Y: 4}, Tile{Code: Empty}},
	}
	for _, c := range checks {
		if got := m.TileAt(c.pos); got != c.tile {
			t.Errorf("tile at %s = %+v, want %+v", c.pos, got, c.tile)
		}
	}
	if len(m.Targets()) != 4 {
		t.Errorf("targets = %d, want 4", len(m.Targets()))
	}
}

func TestBuildLevel_MalformedInput(t *testing.T) {
	config := validConfig()
	config.Layout[2] = "#@ $ ?#"

	_, err := BuildLevel(config)
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("BuildLevel() error = %v, want ErrMalformedInput", err)
	}
}

func TestDecodeLevelConfig(t *testing.T) {
	yamlData := `
name: yaml-level
description: From YAML
layout:
  - "#####"
  - "#@$.#"
  - "#####"
solver:
  yield_every: 50
  max_iterations: 1000
messages:
  solved: "Done in %d"
`
	jsonData := `{
  "name": "json-level",
  "description": "From JSON",
  "layout": ["#####", "#@$.#", "#####"],
  "orientations": {},
  "solver": {"max_duration_ms": 2000}
}`

	t.Run("yaml", func(t *testing.T) {
		config, err := DecodeLevelConfig("level.yaml", []byte(yamlData))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if config.Name != "yaml-level" || len(config.Layout) != 3 {
			t.Errorf("unexpected config: %+v", config)
		}
		if config.Solver == nil || config.Solver.YieldEvery != 50 || config.Solver.MaxIterations != 1000 {
			t.Errorf("solver settings = %+v", config.Solver)
		}
		if config.Messages.Solved != "Done in %d" {
			t.Errorf("solved message = %q", config.Messages.Solved)
		}
	})

	t.Run("json", func(t *testing.T) {
		config, err := DecodeLevelConfig("level.json", []byte(jsonData))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if config.Name != "json-level" {
			t.Errorf("name = %q", config.Name)
		}
		_, maxDuration := config.Solver.Durations()
		if maxDuration.Milliseconds() != 2000 {
			t.Errorf("max duration = %v", maxDuration)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := DecodeLevelConfig("level.json", []byte("{")); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestLoadLevelConfig(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(valid, []byte(`{"name":"v","description":"d","layout":["#####","#@$.#","#####"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	invalid := filepath.Join(dir, "invalid.yml")
	if err := os.WriteFile(invalid, []byte("name: v\ndescription: d\nlayout: [\"#####\", \"#@$ #\", \"#####\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadLevelConfig(valid)
	if err != nil {
		t.Fatalf("LoadLevelConfig failed: %v", err)
	}
	if config.Name != "v" {
		t.Errorf("name = %q", config.Name)
	}

	if _, err := LoadLevelConfig(invalid); err == nil || !strings.Contains(err.Error(), "invalid level") {
		t.Errorf("expected invalid level error, got %v", err)
	}
	if _, err := LoadLevelConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultLevelConfig(t *testing.T) {
	if err := ValidateLevelConfig(DefaultLevelConfig()); err != nil {
		t.Errorf("default level should be valid: %v", err)
	}

	var nilSettings *SolverSettings
	pause, maxDuration := nilSettings.Durations()
	if pause != 0 || maxDuration != 0 {
		t.Errorf("nil settings durations = %v, %v", pause, maxDuration)
	}
}
